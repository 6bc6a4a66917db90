package primary

import "context"

// RunResult summarizes one orchestrated run of a workflow.
type RunResult struct {
	WorkflowID   string
	StagesRun    []string
	FinalStage   string
	Completed    bool
	FailedStage  string
	FailureError string
}

// Orchestrator drives a workflow through its configured stage plan,
// invoking the external agent once per stage. Agent invocation is blocking;
// cancelling the context aborts the subprocess and moves the workflow to
// errored rather than leaving it orphaned.
type Orchestrator interface {
	// Run drives the workflow from its current stage to the end of its
	// plan, or until a stage fails. Each successful stage appends a
	// stage_transition; a failure records workflow_failed and sets status
	// errored, leaving currentStage unchanged for diagnosis.
	Run(ctx context.Context, workflowID string) (*RunResult, error)

	// RunStage executes exactly one stage of the workflow.
	RunStage(ctx context.Context, workflowID, stageName string) error

	// Retry re-invokes the stage an errored workflow failed on. Retry
	// counting is configurable policy; zero max means unbounded.
	Retry(ctx context.Context, workflowID string) (*RunResult, error)
}
