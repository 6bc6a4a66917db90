package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/example/adw/internal/core/slot"
	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/primary"
	"github.com/example/adw/internal/ports/secondary"
)

// WorktreeServiceImpl implements primary.WorktreeService: one isolated
// worktree and output directory per workflow id.
type WorktreeServiceImpl struct {
	repo         secondary.WorkflowRepository
	issueRepo    secondary.IssueRepository
	deletionRepo secondary.DeletionRepository
	workspace    secondary.WorkspaceAdapter
	snapshots    secondary.StateSnapshotter
}

// NewWorktreeService creates a WorktreeService with injected dependencies.
func NewWorktreeService(
	repo secondary.WorkflowRepository,
	issueRepo secondary.IssueRepository,
	deletionRepo secondary.DeletionRepository,
	workspace secondary.WorkspaceAdapter,
	snapshots secondary.StateSnapshotter,
) *WorktreeServiceImpl {
	return &WorktreeServiceImpl{
		repo:         repo,
		issueRepo:    issueRepo,
		deletionRepo: deletionRepo,
		workspace:    workspace,
		snapshots:    snapshots,
	}
}

// Provision creates or reuses the isolated environment for a workflow. An
// existing worktree at the canonical path is reused so interrupted
// workflows can resume. A live workflow occupying the same port slot makes
// provisioning fail with workflow.ErrSlotUnavailable; ports are never
// silently reassigned.
func (s *WorktreeServiceImpl) Provision(ctx context.Context, workflowID string) (*primary.ProvisionResult, error) {
	if err := workflow.ValidateID(workflowID); err != nil {
		return nil, err
	}

	rec, err := s.repo.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	offset, err := slot.Offset(workflowID)
	if err != nil {
		return nil, err
	}
	live, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if occupant, busy := slotOccupied(workflowID, offset, live); busy {
		return nil, fmt.Errorf("%w: slot %d is held by workflow %s", workflow.ErrSlotUnavailable, offset, occupant)
	}

	branch := rec.BranchName
	if branch == "" {
		branch = workflow.BranchName(rec.IssueNumber, rec.ID, s.issueTitle(ctx, rec))
	}

	worktreePath := s.workspace.WorktreePath(workflowID)
	exists, err := s.workspace.WorktreeExists(ctx, worktreePath)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := s.workspace.CreateWorktree(ctx, branch, worktreePath); err != nil {
			return nil, err
		}
	}

	outputPath := s.workspace.OutputPath(workflowID)
	if err := s.workspace.CreateDirectory(ctx, outputPath); err != nil {
		return nil, err
	}

	env := map[string]string{
		"ADW_ID":             rec.ID,
		"ADW_BACKEND_PORT":   strconv.Itoa(rec.BackendPort),
		"ADW_FRONTEND_PORT":  strconv.Itoa(rec.FrontendPort),
		"ADW_WEBSOCKET_PORT": strconv.Itoa(rec.WebsocketPort),
		"ADW_MODEL_SET":      string(rec.ModelSet),
	}
	if err := s.workspace.WriteEnvFile(ctx, worktreePath, env); err != nil {
		return nil, err
	}

	planFile := rec.PlanFile
	if planFile == "" {
		planFile = filepath.Join(outputPath, "plan.md")
	}
	if err := s.repo.SetProvisioned(ctx, workflowID, branch, worktreePath, planFile); err != nil {
		return nil, err
	}

	if updated, err := s.repo.GetByID(ctx, workflowID); err == nil && s.snapshots != nil {
		s.snapshots.Write(updated)
	}

	return &primary.ProvisionResult{
		WorkflowID:   workflowID,
		WorktreePath: worktreePath,
		OutputPath:   outputPath,
		BranchName:   branch,
		Reused:       exists,
		Ports: primary.PortAssignment{
			Backend:   rec.BackendPort,
			Frontend:  rec.FrontendPort,
			Websocket: rec.WebsocketPort,
		},
	}, nil
}

// issueTitle resolves the issue title for branch naming, tolerating
// workflows without an allocation.
func (s *WorktreeServiceImpl) issueTitle(ctx context.Context, rec *secondary.WorkflowRecord) string {
	if rec.IssueNumber <= 0 {
		return string(rec.IssueClass)
	}
	alloc, err := s.issueRepo.GetByNumber(ctx, rec.IssueNumber)
	if err != nil {
		return string(rec.IssueClass)
	}
	return alloc.IssueTitle
}

// Teardown removes the requested filesystem artifacts, always recording
// what was actually removed versus already absent. Component failures are
// recorded in the deletion record rather than returned, so teardown can be
// retried safely. Works after soft delete: paths derive from the id alone.
func (s *WorktreeServiceImpl) Teardown(ctx context.Context, workflowID string, opts primary.TeardownOptions) (*secondary.DeletionRecord, error) {
	if err := workflow.ValidateID(workflowID); err != nil {
		return nil, err
	}

	rec := &secondary.DeletionRecord{
		WorkflowID:      workflowID,
		WorktreeOutcome: secondary.OutcomeSkipped,
		OutputOutcome:   secondary.OutcomeSkipped,
		RecordOutcome:   secondary.OutcomeSkipped,
		Reason:          opts.Reason,
	}

	if opts.RemoveWorktree {
		rec.WorktreeOutcome = s.removeIfPresent(ctx, s.workspace.WorktreePath(workflowID), s.workspace.WorktreeExists, s.workspace.RemoveWorktree)
	}
	if opts.RemoveOutputDir {
		rec.OutputOutcome = s.removeIfPresent(ctx, s.workspace.OutputPath(workflowID), s.workspace.DirectoryExists, s.workspace.RemoveDirectory)
	}

	if err := s.deletionRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("teardown ran but audit record failed: %w", err)
	}
	return rec, nil
}

// removeIfPresent removes one artifact and classifies the result.
func (s *WorktreeServiceImpl) removeIfPresent(
	ctx context.Context,
	path string,
	exists func(context.Context, string) (bool, error),
	remove func(context.Context, string) error,
) secondary.DeletionOutcome {
	present, err := exists(ctx, path)
	if err != nil {
		return secondary.OutcomeFailed
	}
	if !present {
		return secondary.OutcomeAbsent
	}
	if err := remove(ctx, path); err != nil {
		return secondary.OutcomeFailed
	}
	return secondary.OutcomeRemoved
}

// Ensure WorktreeServiceImpl implements the interface.
var _ primary.WorktreeService = (*WorktreeServiceImpl)(nil)
