package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/example/adw/internal/core/stage"
	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/primary"
	"github.com/example/adw/internal/ports/secondary"
)

// OrchestratorImpl implements primary.Orchestrator: it drives one workflow
// through its configured stage plan, invoking the external agent once per
// executable stage.
type OrchestratorImpl struct {
	workflows primary.WorkflowService
	worktrees primary.WorktreeService
	repo      secondary.WorkflowRepository
	runner    secondary.AgentRunner
	activity  secondary.ActivityRepository

	// maxRetries bounds explicit retries out of errored; 0 means
	// unbounded, leaving retry discipline to operator judgment.
	maxRetries int
}

// NewOrchestrator creates an Orchestrator with injected dependencies.
func NewOrchestrator(
	workflows primary.WorkflowService,
	worktrees primary.WorktreeService,
	repo secondary.WorkflowRepository,
	runner secondary.AgentRunner,
	activity secondary.ActivityRepository,
	maxRetries int,
) *OrchestratorImpl {
	return &OrchestratorImpl{
		workflows:  workflows,
		worktrees:  worktrees,
		repo:       repo,
		runner:     runner,
		activity:   activity,
		maxRetries: maxRetries,
	}
}

// Run provisions the environment and advances the workflow stage by stage
// until its plan is exhausted or a stage fails. Each successful agent run
// appends to all_workflows_run; a failure sets status errored and leaves
// currentStage pointing at the failed stage.
func (o *OrchestratorImpl) Run(ctx context.Context, workflowID string) (*primary.RunResult, error) {
	rec, err := o.workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if rec.Status == workflow.StatusCompleted {
		return nil, fmt.Errorf("workflow %s is already completed", workflowID)
	}

	env, err := o.worktrees.Provision(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if _, err := o.workflows.SetStatus(ctx, workflowID, workflow.StatusInProgress); err != nil {
		return nil, err
	}

	return o.advance(ctx, workflowID, env, false)
}

// RunStage executes exactly one stage: transitions into it if needed, then
// invokes the agent for it.
func (o *OrchestratorImpl) RunStage(ctx context.Context, workflowID, stageName string) error {
	rec, err := o.workflows.Get(ctx, workflowID)
	if err != nil {
		return err
	}

	env, err := o.worktrees.Provision(ctx, workflowID)
	if err != nil {
		return err
	}

	if rec.CurrentStage != stageName {
		if _, err := o.workflows.TransitionStage(ctx, workflowID, stageName); err != nil {
			return err
		}
	}
	return o.executeStage(ctx, workflowID, stage.Stage(stageName), env)
}

// Retry re-invokes the stage an errored workflow failed on and, on success,
// continues the rest of the plan.
func (o *OrchestratorImpl) Retry(ctx context.Context, workflowID string) (*primary.RunResult, error) {
	rec, err := o.workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if rec.Status != workflow.StatusErrored {
		return nil, fmt.Errorf("workflow %s is not errored (status %s)", workflowID, rec.Status)
	}

	if o.maxRetries > 0 {
		failures, err := o.countFailures(ctx, workflowID)
		if err != nil {
			return nil, err
		}
		if failures > o.maxRetries {
			return nil, fmt.Errorf("workflow %s exceeded the retry limit (%d failures, max %d)", workflowID, failures, o.maxRetries)
		}
	}

	env, err := o.worktrees.Provision(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if _, err := o.workflows.SetStatus(ctx, workflowID, workflow.StatusInProgress); err != nil {
		return nil, err
	}

	// Re-run the stage the workflow stopped at, then continue forward.
	return o.advance(ctx, workflowID, env, true)
}

// advance drives the workflow forward. When runCurrent is set the current
// stage itself is executed first (the retry path); otherwise execution
// starts with the transition out of the current stage.
func (o *OrchestratorImpl) advance(ctx context.Context, workflowID string, env *primary.ProvisionResult, runCurrent bool) (*primary.RunResult, error) {
	result := &primary.RunResult{WorkflowID: workflowID}

	rec, err := o.workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	plan := stage.FromStrings(rec.StagePlan)
	current := stage.Stage(rec.CurrentStage)

	if runCurrent && isExecutable(current) {
		if err := o.executeStage(ctx, workflowID, current, env); err != nil {
			return o.failed(result, current, err)
		}
		result.StagesRun = append(result.StagesRun, string(current))
	}

	for {
		next, ok := stage.Next(plan, current)
		if !ok {
			break
		}
		if _, err := o.workflows.TransitionStage(ctx, workflowID, string(next)); err != nil {
			return nil, err
		}
		current = next

		if !isExecutable(current) {
			continue
		}
		if err := o.executeStage(ctx, workflowID, current, env); err != nil {
			return o.failed(result, current, err)
		}
		result.StagesRun = append(result.StagesRun, string(current))
	}

	if _, err := o.workflows.SetStatus(ctx, workflowID, workflow.StatusCompleted); err != nil {
		return nil, err
	}

	result.FinalStage = string(current)
	result.Completed = true
	return result, nil
}

// executeStage runs the external agent for one stage, blocking until exit.
// On failure the workflow moves to status errored with currentStage left
// unchanged so the failure point stays diagnosable; the write uses a
// detached context so cancellation of the run cannot orphan the workflow.
func (o *OrchestratorImpl) executeStage(ctx context.Context, workflowID string, st stage.Stage, env *primary.ProvisionResult) error {
	rec, err := o.workflows.Get(ctx, workflowID)
	if err != nil {
		return err
	}

	inv := secondary.AgentInvocation{
		WorkflowID:   workflowID,
		Stage:        string(st),
		WorktreePath: env.WorktreePath,
		Env: []string{
			"ADW_ID=" + workflowID,
			"ADW_BACKEND_PORT=" + strconv.Itoa(env.Ports.Backend),
			"ADW_FRONTEND_PORT=" + strconv.Itoa(env.Ports.Frontend),
			"ADW_WEBSOCKET_PORT=" + strconv.Itoa(env.Ports.Websocket),
			"ADW_MODEL_SET=" + string(rec.ModelSet),
		},
	}

	runErr := o.runner.Run(ctx, inv)

	if st == stage.Patch {
		attempt := workflow.PatchAttempt{Outcome: workflow.PatchOutcomeSuccess}
		if runErr != nil {
			attempt.Outcome = workflow.PatchOutcomeFailure
			attempt.Detail = runErr.Error()
		}
		o.repo.AppendPatchAttempt(context.WithoutCancel(ctx), workflowID, attempt)
	}

	if runErr != nil {
		detached := context.WithoutCancel(ctx)
		if _, err := o.workflows.SetStatus(detached, workflowID, workflow.StatusErrored); err != nil {
			return errors.Join(runErr, err)
		}
		return runErr
	}

	return o.repo.AppendWorkflowRun(ctx, workflowID, scriptName(st))
}

// failed finalizes a run result after a stage failure. The errored status
// has already been written by executeStage.
func (o *OrchestratorImpl) failed(result *primary.RunResult, st stage.Stage, err error) (*primary.RunResult, error) {
	result.FailedStage = string(st)
	result.FinalStage = string(st)
	result.FailureError = err.Error()
	return result, err
}

// countFailures counts workflow_failed ledger entries for retry policy.
func (o *OrchestratorImpl) countFailures(ctx context.Context, workflowID string) (int, error) {
	entries, err := o.activity.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.EventType == workflow.EventWorkflowFailed {
			n++
		}
	}
	return n, nil
}

// isExecutable reports whether a stage invokes the agent. Backlog is a
// holding stage and ready-to-merge is terminal; neither runs the agent.
func isExecutable(s stage.Stage) bool {
	return s != stage.Backlog && s != stage.ReadyToMerge && s != stage.Errored
}

// scriptName is the workflow-script identifier recorded per executed stage.
func scriptName(s stage.Stage) string {
	return "adw_" + string(s)
}

// Ensure OrchestratorImpl implements the interface.
var _ primary.Orchestrator = (*OrchestratorImpl)(nil)
