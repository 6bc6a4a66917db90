package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

// IssueRepository implements secondary.IssueRepository using SQLite.
type IssueRepository struct {
	db *sql.DB
}

// NewIssueRepository creates a new IssueRepository.
func NewIssueRepository(db *sql.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// Allocate claims an issue number. number 0 takes the next sequential one;
// sequential allocation never reuses a number, even a soft-deleted one.
// Explicitly claiming a number held by a live allocation fails with
// workflow.ErrDuplicateIssueNumber via the storage-level unique index, never
// a check-then-write.
func (r *IssueRepository) Allocate(ctx context.Context, number int, title, workflowID string) (*secondary.IssueAllocationRecord, error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if number == 0 {
		err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(issue_number), 0) + 1 FROM issue_allocations").Scan(&number)
		if err != nil {
			return nil, fmt.Errorf("failed to compute next issue number: %w", err)
		}
	}

	rec := &secondary.IssueAllocationRecord{
		ID:          uuid.New().String(),
		IssueNumber: number,
		IssueTitle:  title,
		WorkflowID:  workflowID,
		CreatedAt:   now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO issue_allocations (id, issue_number, issue_title, workflow_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.IssueNumber, rec.IssueTitle, nullString(rec.WorkflowID), formatTime(now))
	if err != nil {
		return nil, mapConstraintError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByNumber retrieves a live allocation by number.
func (r *IssueRepository) GetByNumber(ctx context.Context, number int) (*secondary.IssueAllocationRecord, error) {
	query := `SELECT id, issue_number, issue_title, workflow_id, created_at, deleted_at
		FROM issue_allocations WHERE issue_number = ? AND deleted_at IS NULL`

	var rec secondary.IssueAllocationRecord
	var workflowID sql.NullString
	var createdAt string
	var deletedAt sql.NullString

	err := r.db.QueryRowContext(ctx, query, number).Scan(
		&rec.ID,
		&rec.IssueNumber,
		&rec.IssueTitle,
		&workflowID,
		&createdAt,
		&deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: issue %d", workflow.ErrNotFound, number)
	}
	if err != nil {
		return nil, err
	}

	rec.WorkflowID = workflowID.String
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rec.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SoftDelete releases an issue number independently of its workflow.
func (r *IssueRepository) SoftDelete(ctx context.Context, number int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE issue_allocations SET deleted_at = ? WHERE issue_number = ? AND deleted_at IS NULL",
		formatTime(time.Now().UTC()), number)
	if err != nil {
		return fmt.Errorf("failed to soft-delete issue allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: issue %d", workflow.ErrNotFound, number)
	}
	return nil
}

// Ensure IssueRepository implements the interface.
var _ secondary.IssueRepository = (*IssueRepository)(nil)
