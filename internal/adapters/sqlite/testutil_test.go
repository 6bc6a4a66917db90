package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/adw/internal/adapters/sqlite"
	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/db"
	"github.com/example/adw/internal/ports/secondary"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if _, err := conn.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}

func seedWorkflow(t *testing.T, repo *sqlite.WorkflowRepository, id string, issueNumber int) *secondary.WorkflowRecord {
	t.Helper()

	rec := &secondary.WorkflowRecord{
		ID:            id,
		IssueNumber:   issueNumber,
		IssueClass:    workflow.ClassFeature,
		CurrentStage:  "backlog",
		Status:        workflow.StatusPending,
		ModelSet:      workflow.ModelSetBase,
		DataSource:    workflow.SourceKanban,
		StagePlan:     []string{"backlog", "plan", "build", "test", "review", "document", "ready-to-merge"},
		BackendPort:   9111,
		FrontendPort:  9211,
		WebsocketPort: 9311,
	}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("failed to seed workflow %s: %v", id, err)
	}
	return rec
}

func countActivity(t *testing.T, conn *sql.DB, workflowID, eventType string) int {
	t.Helper()

	var n int
	err := conn.QueryRow(
		"SELECT COUNT(*) FROM activity_log WHERE workflow_id = ? AND event_type = ?",
		workflowID, eventType).Scan(&n)
	if err != nil {
		t.Fatalf("failed to count activity: %v", err)
	}
	return n
}
