// Package sqlite contains the SQLite repository implementations for the ADW
// core. Every state-mutating method pairs its field update with its
// activity_log insert inside one transaction; the pairing is never
// observable as partially applied.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

// workflowColumns is the shared column list for workflow scans.
const workflowColumns = `id, issue_number, issue_class, branch_name, worktree_path, plan_file, patch_file,
	current_stage, status, is_stuck, model_set, data_source,
	stage_plan, all_workflows_run, patch_history,
	backend_port, websocket_port, frontend_port, pr_number, pr_url,
	created_at, updated_at, completed_at, deleted_at`

// WorkflowRepository implements secondary.WorkflowRepository using SQLite.
type WorkflowRepository struct {
	db *sql.DB
}

// NewWorkflowRepository creates a new WorkflowRepository.
func NewWorkflowRepository(db *sql.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Create persists a new workflow record. Uniqueness of id and issue_number
// is enforced by the storage layer; constraint violations map onto the
// domain error taxonomy.
func (r *WorkflowRepository) Create(ctx context.Context, rec *secondary.WorkflowRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	stagePlan, err := json.Marshal(emptyIfNil(rec.StagePlan))
	if err != nil {
		return fmt.Errorf("failed to marshal stage plan: %w", err)
	}
	runs, err := json.Marshal(emptyIfNil(rec.AllWorkflowsRun))
	if err != nil {
		return fmt.Errorf("failed to marshal workflow runs: %w", err)
	}
	patches, err := json.Marshal(rec.PatchHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal patch history: %w", err)
	}
	if rec.PatchHistory == nil {
		patches = []byte("[]")
	}

	query := `INSERT INTO workflows (
		id, issue_number, issue_class, branch_name, worktree_path, plan_file, patch_file,
		current_stage, status, is_stuck, model_set, data_source,
		stage_plan, all_workflows_run, patch_history,
		backend_port, websocket_port, frontend_port, pr_number, pr_url,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		nullInt(rec.IssueNumber),
		string(rec.IssueClass),
		nullString(rec.BranchName),
		nullString(rec.WorktreePath),
		nullString(rec.PlanFile),
		nullString(rec.PatchFile),
		rec.CurrentStage,
		string(rec.Status),
		boolToInt(rec.IsStuck),
		string(rec.ModelSet),
		string(rec.DataSource),
		string(stagePlan),
		string(runs),
		string(patches),
		nullInt(rec.BackendPort),
		nullInt(rec.WebsocketPort),
		nullInt(rec.FrontendPort),
		nullInt(rec.PRNumber),
		nullString(rec.PRURL),
		formatTime(rec.CreatedAt),
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return mapConstraintError(err)
	}
	return nil
}

// GetByID retrieves a workflow by id, excluding soft-deleted records.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*secondary.WorkflowRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE id = ? AND deleted_at IS NULL", workflowColumns)

	rec, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateStage sets current_stage and appends the paired ledger entry in one
// transaction.
func (r *WorkflowRepository) UpdateStage(ctx context.Context, id, newStage string, m secondary.Mutation) error {
	return r.mutate(ctx, id, m,
		"UPDATE workflows SET current_stage = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		newStage)
}

// UpdateStatus sets status and appends the paired ledger entry in one
// transaction. The first transition to completed also stamps completed_at.
func (r *WorkflowRepository) UpdateStatus(ctx context.Context, id string, newStatus workflow.Status, m secondary.Mutation) error {
	now := formatTime(time.Now().UTC())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var res sql.Result
	if newStatus == workflow.StatusCompleted {
		res, err = tx.ExecContext(ctx,
			"UPDATE workflows SET status = ?, completed_at = COALESCE(completed_at, ?), updated_at = ? WHERE id = ? AND deleted_at IS NULL",
			string(newStatus), now, now, id)
	} else {
		res, err = tx.ExecContext(ctx,
			"UPDATE workflows SET status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
			string(newStatus), now, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	if err := appendActivity(ctx, tx, id, m, now); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateStuck flips is_stuck and appends the paired ledger entry. The update
// deliberately leaves updated_at alone: the stuck flag is advisory metadata
// and must not register as forward progress, and the narrow single-column
// write cannot conflict with concurrent stage or status updates.
func (r *WorkflowRepository) UpdateStuck(ctx context.Context, id string, stuck bool, m secondary.Mutation) error {
	now := formatTime(time.Now().UTC())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE workflows SET is_stuck = ? WHERE id = ? AND deleted_at IS NULL",
		boolToInt(stuck), id)
	if err != nil {
		return fmt.Errorf("failed to update stuck flag: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	if err := appendActivity(ctx, tx, id, m, now); err != nil {
		return err
	}
	return tx.Commit()
}

// SetProvisioned records the environment artifacts once the worktree exists.
func (r *WorkflowRepository) SetProvisioned(ctx context.Context, id, branchName, worktreePath, planFile string) error {
	now := formatTime(time.Now().UTC())
	res, err := r.db.ExecContext(ctx,
		"UPDATE workflows SET branch_name = ?, worktree_path = ?, plan_file = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		branchName, worktreePath, nullString(planFile), now, id)
	if err != nil {
		return fmt.Errorf("failed to record provisioned artifacts: %w", err)
	}
	return requireRow(res, id)
}

// AppendWorkflowRun appends a script name to the ordered all_workflows_run set.
func (r *WorkflowRepository) AppendWorkflowRun(ctx context.Context, id, script string) error {
	return r.appendJSON(ctx, id, "all_workflows_run", func(raw string) (string, error) {
		var runs []string
		if err := json.Unmarshal([]byte(raw), &runs); err != nil {
			return "", fmt.Errorf("failed to parse workflow runs: %w", err)
		}
		runs = append(runs, script)
		out, err := json.Marshal(runs)
		if err != nil {
			return "", err
		}
		return string(out), nil
	})
}

// AppendPatchAttempt appends one attempt to the ordered patch history.
func (r *WorkflowRepository) AppendPatchAttempt(ctx context.Context, id string, attempt workflow.PatchAttempt) error {
	return r.appendJSON(ctx, id, "patch_history", func(raw string) (string, error) {
		var history []workflow.PatchAttempt
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			return "", fmt.Errorf("failed to parse patch history: %w", err)
		}
		if attempt.Attempt == 0 {
			attempt.Attempt = len(history) + 1
		}
		if attempt.Timestamp.IsZero() {
			attempt.Timestamp = time.Now().UTC()
		}
		history = append(history, attempt)
		out, err := json.Marshal(history)
		if err != nil {
			return "", err
		}
		return string(out), nil
	})
}

// appendJSON reads, transforms and writes back one JSON column in a
// transaction, refreshing updated_at.
func (r *WorkflowRepository) appendJSON(ctx context.Context, id, column string, transform func(string) (string, error)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE id = ? AND deleted_at IS NULL", column)
	err = tx.QueryRowContext(ctx, query, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return err
	}

	next, err := transform(raw)
	if err != nil {
		return err
	}

	update := fmt.Sprintf("UPDATE workflows SET %s = ?, updated_at = ? WHERE id = ?", column)
	if _, err := tx.ExecContext(ctx, update, next, formatTime(time.Now().UTC()), id); err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return tx.Commit()
}

// SoftDelete hides the record from all views and appends the paired
// deletion_requested ledger entry.
func (r *WorkflowRepository) SoftDelete(ctx context.Context, id string, m secondary.Mutation) error {
	now := formatTime(time.Now().UTC())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE workflows SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete workflow: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	if err := appendActivity(ctx, tx, id, m, now); err != nil {
		return err
	}
	return tx.Commit()
}

// HardDelete physically removes the record; activity_log rows cascade.
func (r *WorkflowRepository) HardDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to hard-delete workflow: %w", err)
	}
	return requireRow(res, id)
}

// mutate runs `update` (with args newValue, now, id) and the ledger insert
// in one transaction.
func (r *WorkflowRepository) mutate(ctx context.Context, id string, m secondary.Mutation, update, newValue string) error {
	now := formatTime(time.Now().UTC())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, update, newValue, now, id)
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	if err := appendActivity(ctx, tx, id, m, now); err != nil {
		return err
	}
	return tx.Commit()
}

// appendActivity inserts the ledger entry paired with a mutation. Callers
// hold the transaction.
func appendActivity(ctx context.Context, tx *sql.Tx, workflowID string, m secondary.Mutation, now string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO activity_log (id, workflow_id, event_type, field_changed, old_value, new_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		workflowID,
		string(m.Event),
		nullString(m.Field),
		nullString(m.OldValue),
		nullString(m.NewValue),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to append activity entry: %w", err)
	}
	return nil
}

// ListActive returns all non-deleted workflows.
func (r *WorkflowRepository) ListActive(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return r.listView(ctx, "active_workflows", "ORDER BY datetime(created_at) DESC")
}

// ListCompleted returns completed, non-deleted workflows.
func (r *WorkflowRepository) ListCompleted(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return r.listView(ctx, "completed_workflows", "ORDER BY datetime(completed_at) DESC")
}

// ListStuck returns flagged, non-deleted workflows.
func (r *WorkflowRepository) ListStuck(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return r.listView(ctx, "stuck_workflows", "ORDER BY datetime(updated_at) ASC")
}

// ListRecent returns workflows updated in the last 24 hours, newest first.
func (r *WorkflowRepository) ListRecent(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return r.listView(ctx, "recent_workflows", "ORDER BY datetime(updated_at) DESC")
}

// ListInProgress feeds the stuck sweep.
func (r *WorkflowRepository) ListInProgress(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE status = 'in_progress' AND deleted_at IS NULL", workflowColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkflows(rows)
}

func (r *WorkflowRepository) listView(ctx context.Context, view, order string) ([]*secondary.WorkflowRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s %s", workflowColumns, view, order)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkflows(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*secondary.WorkflowRecord, error) {
	var rec secondary.WorkflowRecord
	var issueNumber, isStuck, backendPort, websocketPort, frontendPort, prNumber sql.NullInt64
	var branchName, worktreePath, planFile, patchFile, prURL sql.NullString
	var issueClass, status, modelSet, dataSource string
	var stagePlan, runs, patches string
	var createdAt, updatedAt string
	var completedAt, deletedAt sql.NullString

	err := row.Scan(
		&rec.ID,
		&issueNumber,
		&issueClass,
		&branchName,
		&worktreePath,
		&planFile,
		&patchFile,
		&rec.CurrentStage,
		&status,
		&isStuck,
		&modelSet,
		&dataSource,
		&stagePlan,
		&runs,
		&patches,
		&backendPort,
		&websocketPort,
		&frontendPort,
		&prNumber,
		&prURL,
		&createdAt,
		&updatedAt,
		&completedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.IssueNumber = int(issueNumber.Int64)
	rec.IssueClass = workflow.IssueClass(issueClass)
	rec.BranchName = branchName.String
	rec.WorktreePath = worktreePath.String
	rec.PlanFile = planFile.String
	rec.PatchFile = patchFile.String
	rec.Status = workflow.Status(status)
	rec.IsStuck = isStuck.Int64 != 0
	rec.ModelSet = workflow.ModelSet(modelSet)
	rec.DataSource = workflow.DataSource(dataSource)
	rec.BackendPort = int(backendPort.Int64)
	rec.WebsocketPort = int(websocketPort.Int64)
	rec.FrontendPort = int(frontendPort.Int64)
	rec.PRNumber = int(prNumber.Int64)
	rec.PRURL = prURL.String

	if err := json.Unmarshal([]byte(stagePlan), &rec.StagePlan); err != nil {
		return nil, fmt.Errorf("failed to parse stage plan for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(runs), &rec.AllWorkflowsRun); err != nil {
		return nil, fmt.Errorf("failed to parse workflow runs for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(patches), &rec.PatchHistory); err != nil {
		return nil, fmt.Errorf("failed to parse patch history for %s: %w", rec.ID, err)
	}

	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if rec.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}
	if rec.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return nil, err
	}

	return &rec, nil
}

func scanWorkflows(rows *sql.Rows) ([]*secondary.WorkflowRecord, error) {
	var out []*secondary.WorkflowRecord
	for rows.Next() {
		rec, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// requireRow maps a zero-row update onto ErrNotFound.
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
	}
	return nil
}

// mapConstraintError translates SQLite uniqueness violations into the
// domain taxonomy.
func mapConstraintError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, "workflows.id"):
			return fmt.Errorf("%w: %s", workflow.ErrDuplicateID, msg)
		case strings.Contains(msg, "issue_number"):
			return fmt.Errorf("%w: %s", workflow.ErrDuplicateIssueNumber, msg)
		}
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Tolerate SQLite's own datetime() format for rows touched by
		// ad-hoc SQL.
		t, err = time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
		}
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Ensure WorkflowRepository implements the interface.
var _ secondary.WorkflowRepository = (*WorkflowRepository)(nil)
