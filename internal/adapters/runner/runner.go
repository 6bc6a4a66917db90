// Package runner contains the subprocess-based agent runner. The agent is
// an opaque external program invoked with a stage name, a workflow id, and
// a working directory.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

// ProcessRunner implements secondary.AgentRunner by spawning the configured
// agent command and blocking until it exits. Context cancellation kills the
// subprocess, so a cancelled run never leaves an orphan behind.
type ProcessRunner struct {
	command string
	args    []string
}

// NewProcessRunner creates a runner for the given agent command. Extra args
// are passed before the per-invocation arguments.
func NewProcessRunner(command string, args ...string) *ProcessRunner {
	return &ProcessRunner{command: command, args: args}
}

// Run invokes `<command> [args...] <stage> <workflowID>` in the worktree and
// waits for exit. A non-zero exit (including one forced by cancellation)
// maps onto workflow.ErrAgentProcessFailure.
func (r *ProcessRunner) Run(ctx context.Context, inv secondary.AgentInvocation) error {
	args := append(append([]string{}, r.args...), inv.Stage, inv.WorkflowID)

	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.Dir = inv.WorktreePath
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: stage %s cancelled: %v", workflow.ErrAgentProcessFailure, inv.Stage, ctx.Err())
		}
		return fmt.Errorf("%w: stage %s: %v", workflow.ErrAgentProcessFailure, inv.Stage, err)
	}
	return nil
}

// Ensure ProcessRunner implements the interface.
var _ secondary.AgentRunner = (*ProcessRunner)(nil)
