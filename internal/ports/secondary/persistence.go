// Package secondary defines the secondary ports (driven adapters) for the
// ADW core: persistence, workspace, agent process execution, state snapshots,
// and the outbound event sink.
package secondary

import (
	"context"
	"time"

	"github.com/example/adw/internal/core/workflow"
)

// WorkflowRecord is the persisted shape of one workflow.
type WorkflowRecord struct {
	ID           string
	IssueNumber  int // 0 = no issue allocated
	IssueClass   workflow.IssueClass
	BranchName   string
	WorktreePath string
	PlanFile     string
	PatchFile    string
	CurrentStage string
	Status       workflow.Status
	IsStuck      bool
	ModelSet     workflow.ModelSet
	DataSource   workflow.DataSource

	// StagePlan is the configured forward path; AllWorkflowsRun the ordered
	// set of workflow scripts already executed against this id; PatchHistory
	// the ordered patch attempts. All three persist as typed JSON columns.
	StagePlan       []string
	AllWorkflowsRun []string
	PatchHistory    []workflow.PatchAttempt

	BackendPort   int
	WebsocketPort int
	FrontendPort  int

	PRNumber int
	PRURL    string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	DeletedAt   *time.Time
}

// ActivityEntry is one immutable row of the append-only activity ledger.
type ActivityEntry struct {
	ID           string
	WorkflowID   string
	EventType    workflow.EventType
	FieldChanged string
	OldValue     string
	NewValue     string
	CreatedAt    time.Time
}

// IssueAllocationRecord maps a sequential issue number to its title and,
// optionally, the owning workflow.
type IssueAllocationRecord struct {
	ID          string
	IssueNumber int
	IssueTitle  string
	WorkflowID  string
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// DeletionOutcome describes what happened to one teardown component.
type DeletionOutcome string

// Teardown component outcomes.
const (
	OutcomeRemoved DeletionOutcome = "removed"
	OutcomeAbsent  DeletionOutcome = "absent"
	OutcomeFailed  DeletionOutcome = "failed"
	OutcomeSkipped DeletionOutcome = "skipped"
)

// DeletionRecord is the audit entry written when a workflow is torn down.
type DeletionRecord struct {
	ID              string
	WorkflowID      string
	WorktreeOutcome DeletionOutcome
	OutputOutcome   DeletionOutcome
	RecordOutcome   DeletionOutcome
	Reason          string
	CreatedAt       time.Time
}

// Mutation bundles the field update applied to a workflow row with the
// ledger entry recorded for it. Repositories must apply both in a single
// transaction; a partially applied pair must never be observable.
type Mutation struct {
	Field    string
	OldValue string
	NewValue string
	Event    workflow.EventType
}

// WorkflowRepository is the durable store for workflow records. All reads
// exclude soft-deleted rows unless stated otherwise.
type WorkflowRepository interface {
	// Create persists a new record. Fails with workflow.ErrDuplicateID or
	// workflow.ErrDuplicateIssueNumber; issue-number uniqueness is enforced
	// by the storage layer, not by a check-then-write.
	Create(ctx context.Context, rec *WorkflowRecord) error

	// GetByID returns workflow.ErrNotFound for unknown or soft-deleted ids.
	GetByID(ctx context.Context, id string) (*WorkflowRecord, error)

	// UpdateStage sets current_stage and appends the paired ledger entry
	// atomically. Legality of the transition is the caller's concern.
	UpdateStage(ctx context.Context, id, newStage string, m Mutation) error

	// UpdateStatus sets status (and completed_at the first time the status
	// becomes completed) and appends the paired ledger entry atomically.
	UpdateStatus(ctx context.Context, id string, newStatus workflow.Status, m Mutation) error

	// UpdateStuck flips is_stuck with a narrow single-column update so it
	// cannot conflict with concurrent stage/status writes.
	UpdateStuck(ctx context.Context, id string, stuck bool, m Mutation) error

	// SetProvisioned records branch, worktree path and plan file once the
	// environment exists. Ports are written at creation and never change.
	SetProvisioned(ctx context.Context, id, branchName, worktreePath, planFile string) error

	// AppendWorkflowRun appends a script name to all_workflows_run.
	AppendWorkflowRun(ctx context.Context, id, script string) error

	// AppendPatchAttempt appends one attempt to patch_history.
	AppendPatchAttempt(ctx context.Context, id string, attempt workflow.PatchAttempt) error

	// SoftDelete hides the record from all views and appends the paired
	// deletion_requested ledger entry atomically.
	SoftDelete(ctx context.Context, id string, m Mutation) error

	// HardDelete physically removes the record, cascading its ledger
	// entries. Operates on soft-deleted rows too.
	HardDelete(ctx context.Context, id string) error

	// Query views, computed from current store contents at call time.
	ListActive(ctx context.Context) ([]*WorkflowRecord, error)
	ListCompleted(ctx context.Context) ([]*WorkflowRecord, error)
	ListStuck(ctx context.Context) ([]*WorkflowRecord, error)
	ListRecent(ctx context.Context) ([]*WorkflowRecord, error)

	// ListInProgress feeds the stuck sweep.
	ListInProgress(ctx context.Context) ([]*WorkflowRecord, error)
}

// ActivityRepository reads the append-only ledger. Writes happen only inside
// WorkflowRepository mutations.
type ActivityRepository interface {
	// ListByWorkflow returns entries newest-first, including entries of
	// soft-deleted workflows.
	ListByWorkflow(ctx context.Context, workflowID string) ([]*ActivityEntry, error)
}

// IssueRepository allocates and resolves sequential issue numbers.
type IssueRepository interface {
	// Allocate claims a specific number, or the next free one when number
	// is 0. Uniqueness among non-deleted allocations is enforced by the
	// storage layer.
	Allocate(ctx context.Context, number int, title, workflowID string) (*IssueAllocationRecord, error)
	GetByNumber(ctx context.Context, number int) (*IssueAllocationRecord, error)
	SoftDelete(ctx context.Context, number int) error
}

// DeletionRepository records teardown audit entries.
type DeletionRepository interface {
	Create(ctx context.Context, rec *DeletionRecord) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]*DeletionRecord, error)
}
