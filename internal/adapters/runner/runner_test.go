package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

func TestProcessRunnerSuccess(t *testing.T) {
	r := NewProcessRunner("true")

	err := r.Run(context.Background(), secondary.AgentInvocation{
		WorkflowID:   "a1b2c3d4",
		Stage:        "plan",
		WorktreePath: t.TempDir(),
	})
	if err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestProcessRunnerFailure(t *testing.T) {
	r := NewProcessRunner("false")

	err := r.Run(context.Background(), secondary.AgentInvocation{
		WorkflowID:   "a1b2c3d4",
		Stage:        "build",
		WorktreePath: t.TempDir(),
	})
	if !errors.Is(err, workflow.ErrAgentProcessFailure) {
		t.Errorf("Run() error = %v, want ErrAgentProcessFailure", err)
	}
}

func TestProcessRunnerCancellation(t *testing.T) {
	// The trailing stage and id arguments land in $0/$1 of the subshell.
	r := NewProcessRunner("sh", "-c", "sleep 30")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Run(ctx, secondary.AgentInvocation{
		WorkflowID:   "a1b2c3d4",
		Stage:        "test",
		WorktreePath: t.TempDir(),
	})
	if !errors.Is(err, workflow.ErrAgentProcessFailure) {
		t.Errorf("Run() error = %v, want ErrAgentProcessFailure", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not abort the subprocess")
	}
}
