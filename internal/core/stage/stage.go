// Package stage contains the pure SDLC stage machine for workflows.
// Guards here evaluate transition legality without side effects; the
// application layer decides when to call them.
package stage

import (
	"fmt"

	"github.com/example/adw/internal/core/workflow"
)

// Stage is one phase of the SDLC pipeline.
type Stage string

// Pipeline stages. ReadyToMerge and Errored are terminal for automatic
// progression; leaving Errored requires an explicit retry action.
const (
	Backlog      Stage = "backlog"
	Plan         Stage = "plan"
	Build        Stage = "build"
	Test         Stage = "test"
	Review       Stage = "review"
	Document     Stage = "document"
	ReadyToMerge Stage = "ready-to-merge"
	Patch        Stage = "patch"
	Errored      Stage = "errored"
)

// Valid reports whether the stage is a known value.
func (s Stage) Valid() bool {
	switch s {
	case Backlog, Plan, Build, Test, Review, Document, ReadyToMerge, Patch, Errored:
		return true
	}
	return false
}

// IsTerminal reports whether automatic progression stops at this stage.
func (s Stage) IsTerminal() bool {
	return s == ReadyToMerge || s == Errored
}

// CanonicalPath returns the full forward path for an issue class.
// Patch workflows collapse plan+build+test into a single externally
// orchestrated patch phase before rejoining at review.
func CanonicalPath(class workflow.IssueClass) []Stage {
	if class == workflow.ClassPatch {
		return []Stage{Backlog, Patch, Review, Document, ReadyToMerge}
	}
	return []Stage{Backlog, Plan, Build, Test, Review, Document, ReadyToMerge}
}

// ResolvePlan validates a requested stage set against the canonical path for
// the class and returns the workflow's configured forward path. An empty
// request means the full canonical path. A reduced set must be an ordered
// subsequence of the canonical path; Backlog is always the entry stage and is
// prepended when omitted.
func ResolvePlan(class workflow.IssueClass, requested []Stage) ([]Stage, error) {
	canonical := CanonicalPath(class)
	if len(requested) == 0 {
		return canonical, nil
	}

	plan := make([]Stage, 0, len(requested)+1)
	if requested[0] != Backlog {
		plan = append(plan, Backlog)
	}

	cursor := 0
	for _, s := range requested {
		if !s.Valid() || s == Errored {
			return nil, fmt.Errorf("stage %q cannot appear in a stage plan", s)
		}
		found := false
		for cursor < len(canonical) {
			if canonical[cursor] == s {
				found = true
				cursor++
				break
			}
			cursor++
		}
		if !found {
			return nil, fmt.Errorf("stage %q is out of order for class %q", s, class)
		}
		plan = append(plan, s)
	}
	return plan, nil
}

// indexOf returns the position of s in plan, or -1.
func indexOf(plan []Stage, s Stage) int {
	for i, p := range plan {
		if p == s {
			return i
		}
	}
	return -1
}

// CanTransition evaluates whether moving from current to next is legal under
// the configured plan. Legal moves: the immediate successor in the plan,
// re-entry into an already-visited stage (re-running), Errored from any
// non-terminal stage, and any plan stage out of Errored (explicit retry).
func CanTransition(plan []Stage, current, next Stage) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown stage %q", workflow.ErrInvalidTransition, next)
	}
	if next == Errored {
		if current.IsTerminal() {
			return fmt.Errorf("%w: %s is terminal", workflow.ErrInvalidTransition, current)
		}
		return nil
	}
	if current == Errored {
		// Leaving errored is a human action; any configured stage is a
		// legal retry target.
		if indexOf(plan, next) < 0 {
			return fmt.Errorf("%w: %s is not in this workflow's stage plan", workflow.ErrInvalidTransition, next)
		}
		return nil
	}

	cur := indexOf(plan, current)
	nxt := indexOf(plan, next)
	if cur < 0 || nxt < 0 {
		return fmt.Errorf("%w: %s -> %s is outside this workflow's stage plan", workflow.ErrInvalidTransition, current, next)
	}
	if nxt == cur+1 || nxt <= cur {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s skips stages", workflow.ErrInvalidTransition, current, next)
}

// Next returns the successor of current in the plan, or false when current is
// the last stage (or not part of the plan).
func Next(plan []Stage, current Stage) (Stage, bool) {
	i := indexOf(plan, current)
	if i < 0 || i+1 >= len(plan) {
		return "", false
	}
	return plan[i+1], true
}

// Strings converts a plan to its string form for persistence.
func Strings(plan []Stage) []string {
	out := make([]string, len(plan))
	for i, s := range plan {
		out[i] = string(s)
	}
	return out
}

// FromStrings converts a persisted plan back to stages.
func FromStrings(raw []string) []Stage {
	out := make([]Stage, len(raw))
	for i, s := range raw {
		out[i] = Stage(s)
	}
	return out
}
