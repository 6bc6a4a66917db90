package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

// memWorkflowRepo is an in-memory WorkflowRepository that mirrors the
// SQLite adapter's contract: soft-deleted rows hidden from reads, every
// mutation paired with a ledger entry.
type memWorkflowRepo struct {
	mu      sync.Mutex
	records map[string]*secondary.WorkflowRecord
	ledger  map[string][]*secondary.ActivityEntry
}

func newMemWorkflowRepo() *memWorkflowRepo {
	return &memWorkflowRepo{
		records: make(map[string]*secondary.WorkflowRecord),
		ledger:  make(map[string][]*secondary.ActivityEntry),
	}
}

func (r *memWorkflowRepo) Create(ctx context.Context, rec *secondary.WorkflowRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; ok {
		return fmt.Errorf("%w: %s", workflow.ErrDuplicateID, rec.ID)
	}
	for _, other := range r.records {
		if other.DeletedAt == nil && rec.IssueNumber > 0 && other.IssueNumber == rec.IssueNumber {
			return fmt.Errorf("%w: %d", workflow.ErrDuplicateIssueNumber, rec.IssueNumber)
		}
	}

	cp := *rec
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = now
	}
	r.records[rec.ID] = &cp
	return nil
}

func (r *memWorkflowRepo) get(id string) (*secondary.WorkflowRecord, error) {
	rec, ok := r.records[id]
	if !ok || rec.DeletedAt != nil {
		return nil, fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
	}
	return rec, nil
}

func (r *memWorkflowRepo) GetByID(ctx context.Context, id string) (*secondary.WorkflowRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(id)
	if err != nil {
		return nil, err
	}
	cp := *rec
	return &cp, nil
}

func (r *memWorkflowRepo) append(id string, m secondary.Mutation) {
	r.ledger[id] = append([]*secondary.ActivityEntry{{
		ID:           fmt.Sprintf("entry-%d", len(r.ledger[id])+1),
		WorkflowID:   id,
		EventType:    m.Event,
		FieldChanged: m.Field,
		OldValue:     m.OldValue,
		NewValue:     m.NewValue,
		CreatedAt:    time.Now().UTC(),
	}}, r.ledger[id]...)
}

func (r *memWorkflowRepo) UpdateStage(ctx context.Context, id, newStage string, m secondary.Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(id)
	if err != nil {
		return err
	}
	rec.CurrentStage = newStage
	rec.UpdatedAt = time.Now().UTC()
	r.append(id, m)
	return nil
}

func (r *memWorkflowRepo) UpdateStatus(ctx context.Context, id string, newStatus workflow.Status, m secondary.Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(id)
	if err != nil {
		return err
	}
	rec.Status = newStatus
	rec.UpdatedAt = time.Now().UTC()
	if newStatus == workflow.StatusCompleted && rec.CompletedAt == nil {
		now := time.Now().UTC()
		rec.CompletedAt = &now
	}
	r.append(id, m)
	return nil
}

func (r *memWorkflowRepo) UpdateStuck(ctx context.Context, id string, stuck bool, m secondary.Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(id)
	if err != nil {
		return err
	}
	rec.IsStuck = stuck
	r.append(id, m)
	return nil
}

func (r *memWorkflowRepo) SetProvisioned(ctx context.Context, id, branchName, worktreePath, planFile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(id)
	if err != nil {
		return err
	}
	rec.BranchName = branchName
	rec.WorktreePath = worktreePath
	rec.PlanFile = planFile
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memWorkflowRepo) AppendWorkflowRun(ctx context.Context, id, script string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(id)
	if err != nil {
		return err
	}
	rec.AllWorkflowsRun = append(rec.AllWorkflowsRun, script)
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memWorkflowRepo) AppendPatchAttempt(ctx context.Context, id string, attempt workflow.PatchAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(id)
	if err != nil {
		return err
	}
	if attempt.Attempt == 0 {
		attempt.Attempt = len(rec.PatchHistory) + 1
	}
	rec.PatchHistory = append(rec.PatchHistory, attempt)
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memWorkflowRepo) SoftDelete(ctx context.Context, id string, m secondary.Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec.DeletedAt = &now
	r.append(id, m)
	return nil
}

func (r *memWorkflowRepo) HardDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
	}
	delete(r.records, id)
	delete(r.ledger, id)
	return nil
}

func (r *memWorkflowRepo) list(filter func(*secondary.WorkflowRecord) bool) []*secondary.WorkflowRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*secondary.WorkflowRecord
	for _, rec := range r.records {
		if rec.DeletedAt != nil || !filter(rec) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out
}

func (r *memWorkflowRepo) ListActive(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return r.list(func(*secondary.WorkflowRecord) bool { return true }), nil
}

func (r *memWorkflowRepo) ListCompleted(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return r.list(func(rec *secondary.WorkflowRecord) bool { return rec.Status == workflow.StatusCompleted }), nil
}

func (r *memWorkflowRepo) ListStuck(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return r.list(func(rec *secondary.WorkflowRecord) bool { return rec.IsStuck }), nil
}

func (r *memWorkflowRepo) ListRecent(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	return r.list(func(rec *secondary.WorkflowRecord) bool { return rec.UpdatedAt.After(cutoff) }), nil
}

func (r *memWorkflowRepo) ListInProgress(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return r.list(func(rec *secondary.WorkflowRecord) bool { return rec.Status == workflow.StatusInProgress }), nil
}

func (r *memWorkflowRepo) entries(id string) []*secondary.ActivityEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*secondary.ActivityEntry(nil), r.ledger[id]...)
}

// memActivityRepo reads the ledger held by a memWorkflowRepo.
type memActivityRepo struct {
	repo *memWorkflowRepo
}

func (r *memActivityRepo) ListByWorkflow(ctx context.Context, workflowID string) ([]*secondary.ActivityEntry, error) {
	return r.repo.entries(workflowID), nil
}

// memIssueRepo is an in-memory IssueRepository.
type memIssueRepo struct {
	mu     sync.Mutex
	active map[int]*secondary.IssueAllocationRecord
	burned int // highest number ever allocated
}

func newMemIssueRepo() *memIssueRepo {
	return &memIssueRepo{active: make(map[int]*secondary.IssueAllocationRecord)}
}

func (r *memIssueRepo) Allocate(ctx context.Context, number int, title, workflowID string) (*secondary.IssueAllocationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if number == 0 {
		number = r.burned + 1
	}
	if _, taken := r.active[number]; taken {
		return nil, fmt.Errorf("%w: %d", workflow.ErrDuplicateIssueNumber, number)
	}
	if number > r.burned {
		r.burned = number
	}
	rec := &secondary.IssueAllocationRecord{
		ID:          fmt.Sprintf("issue-%d", number),
		IssueNumber: number,
		IssueTitle:  title,
		WorkflowID:  workflowID,
		CreatedAt:   time.Now().UTC(),
	}
	r.active[number] = rec
	return rec, nil
}

func (r *memIssueRepo) GetByNumber(ctx context.Context, number int) (*secondary.IssueAllocationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.active[number]
	if !ok {
		return nil, fmt.Errorf("%w: issue %d", workflow.ErrNotFound, number)
	}
	return rec, nil
}

func (r *memIssueRepo) SoftDelete(ctx context.Context, number int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[number]; !ok {
		return fmt.Errorf("%w: issue %d", workflow.ErrNotFound, number)
	}
	delete(r.active, number)
	return nil
}

// memDeletionRepo records teardown audit entries.
type memDeletionRepo struct {
	mu      sync.Mutex
	records []*secondary.DeletionRecord
}

func (r *memDeletionRepo) Create(ctx context.Context, rec *secondary.DeletionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memDeletionRepo) ListByWorkflow(ctx context.Context, workflowID string) ([]*secondary.DeletionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*secondary.DeletionRecord
	for _, rec := range r.records {
		if rec.WorkflowID == workflowID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// captureSink records published events.
type captureSink struct {
	mu     sync.Mutex
	events []workflow.Event
}

func (s *captureSink) Publish(event workflow.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) all() []workflow.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]workflow.Event(nil), s.events...)
}

// fakeWorkspace tracks worktrees and directories as in-memory sets.
type fakeWorkspace struct {
	mu        sync.Mutex
	worktrees map[string]bool
	dirs      map[string]bool
	envFiles  map[string]map[string]string

	failWorktreeRemoval bool
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		worktrees: make(map[string]bool),
		dirs:      make(map[string]bool),
		envFiles:  make(map[string]map[string]string),
	}
}

func (w *fakeWorkspace) CreateWorktree(ctx context.Context, branchName, targetPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.worktrees[targetPath] = true
	return nil
}

func (w *fakeWorkspace) RemoveWorktree(ctx context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failWorktreeRemoval {
		return fmt.Errorf("worktree removal refused")
	}
	delete(w.worktrees, path)
	return nil
}

func (w *fakeWorkspace) WorktreeExists(ctx context.Context, path string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.worktrees[path], nil
}

func (w *fakeWorkspace) CreateDirectory(ctx context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirs[path] = true
	return nil
}

func (w *fakeWorkspace) RemoveDirectory(ctx context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.dirs, path)
	return nil
}

func (w *fakeWorkspace) DirectoryExists(ctx context.Context, path string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirs[path], nil
}

func (w *fakeWorkspace) WriteEnvFile(ctx context.Context, worktreePath string, env map[string]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.envFiles[worktreePath] = env
	return nil
}

func (w *fakeWorkspace) WorktreePath(workflowID string) string {
	return "/worktrees/" + workflowID
}

func (w *fakeWorkspace) OutputPath(workflowID string) string {
	return "/output/" + workflowID
}

// scriptedRunner returns canned results per stage and records invocations.
type scriptedRunner struct {
	mu          sync.Mutex
	failures    map[string]error // stage -> error
	invocations []secondary.AgentInvocation
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{failures: make(map[string]error)}
}

func (r *scriptedRunner) failStage(stage string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[stage] = err
}

func (r *scriptedRunner) Run(ctx context.Context, inv secondary.AgentInvocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invocations = append(r.invocations, inv)
	return r.failures[inv.Stage]
}

func (r *scriptedRunner) ran() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.invocations))
	for i, inv := range r.invocations {
		out[i] = inv.Stage
	}
	return out
}

// Interface conformance for the fakes.
var (
	_ secondary.WorkflowRepository = (*memWorkflowRepo)(nil)
	_ secondary.ActivityRepository = (*memActivityRepo)(nil)
	_ secondary.IssueRepository    = (*memIssueRepo)(nil)
	_ secondary.DeletionRepository = (*memDeletionRepo)(nil)
	_ secondary.EventSink          = (*captureSink)(nil)
	_ secondary.WorkspaceAdapter   = (*fakeWorkspace)(nil)
	_ secondary.AgentRunner        = (*scriptedRunner)(nil)
)
