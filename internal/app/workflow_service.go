// Package app contains the application services implementing the primary
// ports over the secondary ports. Services are constructed with explicit
// dependencies so tests can instantiate isolated instances.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/example/adw/internal/core/stage"
	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/primary"
	"github.com/example/adw/internal/ports/secondary"
)

// WorkflowServiceImpl implements primary.WorkflowService.
type WorkflowServiceImpl struct {
	repo         secondary.WorkflowRepository
	activityRepo secondary.ActivityRepository
	issueRepo    secondary.IssueRepository
	deletionRepo secondary.DeletionRepository
	sink         secondary.EventSink
	snapshots    secondary.StateSnapshotter
	locks        *idLock
}

// NewWorkflowService creates a WorkflowService with injected dependencies.
func NewWorkflowService(
	repo secondary.WorkflowRepository,
	activityRepo secondary.ActivityRepository,
	issueRepo secondary.IssueRepository,
	deletionRepo secondary.DeletionRepository,
	sink secondary.EventSink,
	snapshots secondary.StateSnapshotter,
) *WorkflowServiceImpl {
	return &WorkflowServiceImpl{
		repo:         repo,
		activityRepo: activityRepo,
		issueRepo:    issueRepo,
		deletionRepo: deletionRepo,
		sink:         sink,
		snapshots:    snapshots,
		locks:        newIDLock(),
	}
}

// Create validates the request, allocates id, ports and (optionally) an
// issue number, and persists the record in its first stage.
func (s *WorkflowServiceImpl) Create(ctx context.Context, req primary.CreateWorkflowRequest) (*secondary.WorkflowRecord, error) {
	if !req.IssueClass.Valid() {
		return nil, fmt.Errorf("%w: %q", workflow.ErrInvalidIssueClass, req.IssueClass)
	}
	modelSet := req.ModelSet
	if modelSet == "" {
		modelSet = workflow.ModelSetBase
	}
	if !modelSet.Valid() {
		return nil, fmt.Errorf("invalid model set %q", modelSet)
	}
	dataSource := req.DataSource
	if dataSource == "" {
		dataSource = workflow.SourceKanban
	}
	if !dataSource.Valid() {
		return nil, fmt.Errorf("invalid data source %q", dataSource)
	}

	id := req.CustomID
	if id == "" {
		var err error
		if id, err = workflow.NewID(); err != nil {
			return nil, err
		}
	}
	if err := workflow.ValidateID(id); err != nil {
		return nil, err
	}

	plan, err := stage.ResolvePlan(req.IssueClass, stage.FromStrings(req.RequestedStages))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrInvalidTransition, err)
	}

	ports, err := allocatePorts(id)
	if err != nil {
		return nil, err
	}

	// Reserve the issue number before the workflow row exists. The
	// allocation table's partial unique index is the authoritative
	// uniqueness check; the workflows table carries a matching index as a
	// second line of defense.
	issueNumber := 0
	if req.IssueNumber > 0 || req.IssueTitle != "" {
		alloc, err := s.issueRepo.Allocate(ctx, req.IssueNumber, req.IssueTitle, "")
		if err != nil {
			return nil, err
		}
		issueNumber = alloc.IssueNumber
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	rec := &secondary.WorkflowRecord{
		ID:            id,
		IssueNumber:   issueNumber,
		IssueClass:    req.IssueClass,
		CurrentStage:  string(plan[0]),
		Status:        workflow.StatusPending,
		ModelSet:      modelSet,
		DataSource:    dataSource,
		StagePlan:     stage.Strings(plan),
		BackendPort:   ports.Backend,
		FrontendPort:  ports.Frontend,
		WebsocketPort: ports.Websocket,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		// Release the reservation so the number is not stranded.
		if issueNumber > 0 {
			s.issueRepo.SoftDelete(ctx, issueNumber)
		}
		return nil, err
	}

	s.writeSnapshot(rec)
	return s.repo.GetByID(ctx, id)
}

// Get retrieves a workflow by id.
func (s *WorkflowServiceImpl) Get(ctx context.Context, id string) (*secondary.WorkflowRecord, error) {
	if err := workflow.ValidateID(id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// TransitionStage moves the workflow to newStage if the configured stage
// plan allows it.
func (s *WorkflowServiceImpl) TransitionStage(ctx context.Context, id, newStage string) (*secondary.WorkflowRecord, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	plan := stage.FromStrings(rec.StagePlan)
	if err := stage.CanTransition(plan, stage.Stage(rec.CurrentStage), stage.Stage(newStage)); err != nil {
		return nil, err
	}

	m := secondary.Mutation{
		Field:    "currentStage",
		OldValue: rec.CurrentStage,
		NewValue: newStage,
		Event:    workflow.EventStageTransition,
	}
	if err := s.repo.UpdateStage(ctx, id, newStage, m); err != nil {
		return nil, err
	}
	s.publish(id, m)

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.writeSnapshot(updated)
	return updated, nil
}

// SetStatus updates the lifecycle status. The event type reflects the
// semantic meaning of the target status.
func (s *WorkflowServiceImpl) SetStatus(ctx context.Context, id string, status workflow.Status) (*secondary.WorkflowRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m := secondary.Mutation{
		Field:    "status",
		OldValue: string(rec.Status),
		NewValue: string(status),
		Event:    statusEvent(status),
	}
	if err := s.repo.UpdateStatus(ctx, id, status, m); err != nil {
		return nil, err
	}
	s.publish(id, m)

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.writeSnapshot(updated)
	return updated, nil
}

// SetStuck flips the advisory stuck flag. Setting the flag to its current
// value is a no-op: no ledger entry, no event.
func (s *WorkflowServiceImpl) SetStuck(ctx context.Context, id string, stuck bool) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.IsStuck == stuck {
		return nil
	}

	event := workflow.EventStuckResolved
	if stuck {
		event = workflow.EventStuckDetected
	}
	m := secondary.Mutation{
		Field:    "isStuck",
		OldValue: strconv.FormatBool(rec.IsStuck),
		NewValue: strconv.FormatBool(stuck),
		Event:    event,
	}
	if err := s.repo.UpdateStuck(ctx, id, stuck, m); err != nil {
		return err
	}
	s.publish(id, m)
	return nil
}

// SoftDelete hides the workflow from all views and releases its issue
// number. The ledger survives and remains queryable by id.
func (s *WorkflowServiceImpl) SoftDelete(ctx context.Context, id, reason string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	m := secondary.Mutation{
		Field:    "deletedAt",
		OldValue: "",
		NewValue: reason,
		Event:    workflow.EventDeletionRequested,
	}
	if err := s.repo.SoftDelete(ctx, id, m); err != nil {
		return err
	}
	s.publish(id, m)

	if rec.IssueNumber > 0 {
		if err := s.issueRepo.SoftDelete(ctx, rec.IssueNumber); err != nil && !errors.Is(err, workflow.ErrNotFound) {
			return fmt.Errorf("workflow hidden but issue release failed: %w", err)
		}
	}
	return nil
}

// HardDelete is the explicit maintenance operation: removes the row
// (cascading its ledger entries) and writes a deletion record capturing the
// actual outcome.
func (s *WorkflowServiceImpl) HardDelete(ctx context.Context, id, reason string) error {
	if err := workflow.ValidateID(id); err != nil {
		return err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	outcome := secondary.OutcomeRemoved
	delErr := s.repo.HardDelete(ctx, id)
	if errors.Is(delErr, workflow.ErrNotFound) {
		outcome = secondary.OutcomeAbsent
	} else if delErr != nil {
		outcome = secondary.OutcomeFailed
	}

	recErr := s.deletionRepo.Create(ctx, &secondary.DeletionRecord{
		WorkflowID:      id,
		WorktreeOutcome: secondary.OutcomeSkipped,
		OutputOutcome:   secondary.OutcomeSkipped,
		RecordOutcome:   outcome,
		Reason:          reason,
	})
	if delErr != nil {
		return delErr
	}
	return recErr
}

// Activity returns the workflow's ledger, newest first.
func (s *WorkflowServiceImpl) Activity(ctx context.Context, id string) ([]*secondary.ActivityEntry, error) {
	if err := workflow.ValidateID(id); err != nil {
		return nil, err
	}
	return s.activityRepo.ListByWorkflow(ctx, id)
}

// publish pushes the ledger payload to the outbound feed.
func (s *WorkflowServiceImpl) publish(id string, m secondary.Mutation) {
	if s.sink == nil {
		return
	}
	s.sink.Publish(workflow.Event{
		WorkflowID:   id,
		Type:         m.Event,
		FieldChanged: m.Field,
		OldValue:     m.OldValue,
		NewValue:     m.NewValue,
		Timestamp:    time.Now().UTC(),
	})
}

// writeSnapshot refreshes the external JSON state file. Snapshot failures
// are not fatal to the mutation that triggered them.
func (s *WorkflowServiceImpl) writeSnapshot(rec *secondary.WorkflowRecord) {
	if s.snapshots == nil || rec == nil {
		return
	}
	s.snapshots.Write(rec)
}

// statusEvent maps a target status onto its ledger event type.
func statusEvent(status workflow.Status) workflow.EventType {
	switch status {
	case workflow.StatusInProgress:
		return workflow.EventWorkflowStarted
	case workflow.StatusCompleted:
		return workflow.EventWorkflowCompleted
	case workflow.StatusErrored:
		return workflow.EventWorkflowFailed
	default:
		return workflow.EventStateChange
	}
}

// Ensure WorkflowServiceImpl implements the interface.
var _ primary.WorkflowService = (*WorkflowServiceImpl)(nil)
