package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/example/adw/internal/ports/secondary"
)

// DeletionRepository implements secondary.DeletionRepository using SQLite.
type DeletionRepository struct {
	db *sql.DB
}

// NewDeletionRepository creates a new DeletionRepository.
func NewDeletionRepository(db *sql.DB) *DeletionRepository {
	return &DeletionRepository{db: db}
}

// Create persists a teardown audit record.
func (r *DeletionRepository) Create(ctx context.Context, rec *secondary.DeletionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO deletion_records (id, workflow_id, worktree_outcome, output_outcome, record_outcome, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.WorkflowID,
		string(rec.WorktreeOutcome),
		string(rec.OutputOutcome),
		string(rec.RecordOutcome),
		nullString(rec.Reason),
		formatTime(rec.CreatedAt),
	)
	return err
}

// ListByWorkflow returns deletion records for a workflow, newest first.
func (r *DeletionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*secondary.DeletionRecord, error) {
	query := `SELECT id, workflow_id, worktree_outcome, output_outcome, record_outcome, reason, created_at
		FROM deletion_records WHERE workflow_id = ?
		ORDER BY datetime(created_at) DESC`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*secondary.DeletionRecord
	for rows.Next() {
		var rec secondary.DeletionRecord
		var worktree, output, record, createdAt string
		var reason sql.NullString

		err := rows.Scan(&rec.ID, &rec.WorkflowID, &worktree, &output, &record, &reason, &createdAt)
		if err != nil {
			return nil, err
		}

		rec.WorktreeOutcome = secondary.DeletionOutcome(worktree)
		rec.OutputOutcome = secondary.DeletionOutcome(output)
		rec.RecordOutcome = secondary.DeletionOutcome(record)
		rec.Reason = reason.String
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Ensure DeletionRepository implements the interface.
var _ secondary.DeletionRepository = (*DeletionRepository)(nil)
