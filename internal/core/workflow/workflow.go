// Package workflow contains the pure domain model for ADW workflows:
// identifiers, enumerations, naming rules, and the shared error taxonomy.
// Nothing in this package performs I/O.
package workflow

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// idPattern is the only accepted shape for a workflow identifier.
// Everything that joins an id into a filesystem path must validate first.
var idPattern = regexp.MustCompile(`^[0-9a-f]{8}$`)

// NewID generates a fresh 8-character lowercase hex workflow identifier.
func NewID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate workflow id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidateID checks that id is exactly 8 lowercase hex characters.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q is not an 8-character lowercase hex id", ErrInvalidID, id)
	}
	return nil
}

// IssueClass categorizes the issue that triggered a workflow.
type IssueClass string

// Issue classes.
const (
	ClassFeature IssueClass = "feature"
	ClassBug     IssueClass = "bug"
	ClassChore   IssueClass = "chore"
	ClassPatch   IssueClass = "patch"
)

// Valid reports whether the issue class is a known value.
func (c IssueClass) Valid() bool {
	switch c {
	case ClassFeature, ClassBug, ClassChore, ClassPatch:
		return true
	}
	return false
}

// Status is the coarse lifecycle state of a workflow, independent of its stage.
type Status string

// Statuses.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusErrored    Status = "errored"
	StatusStuck      Status = "stuck"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusErrored, StatusStuck:
		return true
	}
	return false
}

// ModelSet selects the agent model tier for a workflow.
type ModelSet string

// Model sets.
const (
	ModelSetBase  ModelSet = "base"
	ModelSetHeavy ModelSet = "heavy"
)

// Valid reports whether the model set is a known value.
func (m ModelSet) Valid() bool {
	return m == ModelSetBase || m == ModelSetHeavy
}

// DataSource records where the triggering issue came from.
type DataSource string

// Data sources.
const (
	SourceGitHub DataSource = "github"
	SourceKanban DataSource = "kanban"
)

// Valid reports whether the data source is a known value.
func (d DataSource) Valid() bool {
	return d == SourceGitHub || d == SourceKanban
}

// PatchAttempt is one entry in a workflow's patch history.
type PatchAttempt struct {
	Attempt   int       `json:"attempt"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Patch attempt outcomes.
const (
	PatchOutcomeSuccess = "success"
	PatchOutcomeFailure = "failure"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify reduces a title to a short branch-safe slug.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugStrip.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 40 {
		slug = strings.Trim(slug[:40], "-")
	}
	if slug == "" {
		slug = "workflow"
	}
	return slug
}

// BranchName builds the deterministic branch name for a workflow.
// Shape: adw-<issueNumber>-<id>-<slug>, with the issue segment omitted
// when no issue number is allocated.
func BranchName(issueNumber int, id, title string) string {
	if issueNumber > 0 {
		return fmt.Sprintf("adw-%d-%s-%s", issueNumber, id, Slugify(title))
	}
	return fmt.Sprintf("adw-%s-%s", id, Slugify(title))
}
