package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

// ActivityRepository implements secondary.ActivityRepository using SQLite.
// The ledger is written only inside WorkflowRepository mutations; this
// repository is read-only.
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ListByWorkflow returns ledger entries newest-first. Entries of
// soft-deleted workflows remain queryable by id.
func (r *ActivityRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*secondary.ActivityEntry, error) {
	query := `SELECT id, workflow_id, event_type, field_changed, old_value, new_value, created_at
		FROM activity_log WHERE workflow_id = ?
		ORDER BY datetime(created_at) DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*secondary.ActivityEntry
	for rows.Next() {
		var entry secondary.ActivityEntry
		var eventType, createdAt string
		var field, oldValue, newValue sql.NullString

		err := rows.Scan(
			&entry.ID,
			&entry.WorkflowID,
			&eventType,
			&field,
			&oldValue,
			&newValue,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		entry.EventType = workflow.EventType(eventType)
		entry.FieldChanged = field.String
		entry.OldValue = oldValue.String
		entry.NewValue = newValue.String
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// Ensure ActivityRepository implements the interface.
var _ secondary.ActivityRepository = (*ActivityRepository)(nil)
