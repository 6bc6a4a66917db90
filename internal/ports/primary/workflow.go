// Package primary defines the primary ports (driving adapters) for the ADW
// core. These are the interfaces through which the CLI and any future API
// surface drive the application.
package primary

import (
	"context"
	"time"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

// CreateWorkflowRequest is the inbound creation request.
type CreateWorkflowRequest struct {
	// CustomID pins the workflow id; empty means generate one.
	CustomID string
	// IssueNumber claims a specific sequential number; 0 allocates the next
	// free one when IssueTitle is set, or leaves the workflow issueless.
	IssueNumber int
	IssueTitle  string
	IssueClass  workflow.IssueClass
	ModelSet    workflow.ModelSet
	DataSource  workflow.DataSource
	// RequestedStages reduces the stage plan; empty means the full
	// canonical path for the class.
	RequestedStages []string
}

// WorkflowService is the primary port over the workflow state store.
type WorkflowService interface {
	// Create allocates id, ports and issue number and persists the record
	// in its first stage; workflow_started is recorded later when the
	// status moves to in_progress. Fails with workflow.ErrDuplicateID,
	// workflow.ErrDuplicateIssueNumber or workflow.ErrInvalidIssueClass.
	Create(ctx context.Context, req CreateWorkflowRequest) (*secondary.WorkflowRecord, error)

	// Get returns workflow.ErrNotFound for unknown or soft-deleted ids.
	Get(ctx context.Context, id string) (*secondary.WorkflowRecord, error)

	// TransitionStage moves the workflow to newStage when the configured
	// stage plan allows it, appending exactly one ledger entry.
	TransitionStage(ctx context.Context, id, newStage string) (*secondary.WorkflowRecord, error)

	// SetStatus updates the lifecycle status, appending exactly one ledger
	// entry. The first transition to completed also sets completedAt.
	SetStatus(ctx context.Context, id string, status workflow.Status) (*secondary.WorkflowRecord, error)

	// SetStuck flips the advisory stuck flag, emitting stuck_detected or
	// stuck_resolved. A no-op when the flag already has the given value.
	SetStuck(ctx context.Context, id string, stuck bool) error

	// SoftDelete hides the workflow from all views; its ledger survives.
	SoftDelete(ctx context.Context, id, reason string) error

	// HardDelete is the explicit maintenance operation: writes a deletion
	// record, then removes the row and cascades its ledger entries.
	HardDelete(ctx context.Context, id, reason string) error

	// Activity returns the workflow's ledger, newest first, including
	// entries of soft-deleted workflows.
	Activity(ctx context.Context, id string) ([]*secondary.ActivityEntry, error)
}

// ProvisionResult describes a provisioned workflow environment.
type ProvisionResult struct {
	WorkflowID   string
	WorktreePath string
	OutputPath   string
	BranchName   string
	Reused       bool
	Ports        PortAssignment
}

// PortAssignment is the immutable port triple assigned at creation.
type PortAssignment struct {
	Backend   int
	Frontend  int
	Websocket int
}

// TeardownOptions selects which artifacts teardown removes.
type TeardownOptions struct {
	RemoveWorktree  bool
	RemoveOutputDir bool
	Reason          string
}

// WorktreeService is the primary port for workflow environment isolation.
type WorktreeService interface {
	// Provision creates or reuses the isolated worktree for a workflow,
	// refusing with workflow.ErrSlotUnavailable when another live workflow
	// occupies the same port slot.
	Provision(ctx context.Context, workflowID string) (*ProvisionResult, error)

	// Teardown removes the requested artifacts, recording per-component
	// outcomes. Idempotent: removing what is already absent succeeds and is
	// recorded as absent. Failures are recorded, not thrown, so teardown
	// can be retried.
	Teardown(ctx context.Context, workflowID string, opts TeardownOptions) (*secondary.DeletionRecord, error)
}

// SweepResult summarizes one stuck-detector pass.
type SweepResult struct {
	Scanned  int
	Flagged  []string
	Resolved []string
	SweptAt  time.Time
}

// StuckDetector is the primary port for the periodic staleness sweep.
type StuckDetector interface {
	// Sweep runs one pass over in-progress workflows.
	Sweep(ctx context.Context) (*SweepResult, error)
	// Run sweeps periodically until the context is cancelled.
	Run(ctx context.Context) error
}

// QueryService exposes the read-only projections over the state store.
type QueryService interface {
	Active(ctx context.Context) ([]*secondary.WorkflowRecord, error)
	Completed(ctx context.Context) ([]*secondary.WorkflowRecord, error)
	Stuck(ctx context.Context) ([]*secondary.WorkflowRecord, error)
	Recent(ctx context.Context) ([]*secondary.WorkflowRecord, error)
}
