package db

// SchemaSQL is the complete schema for fresh ADW installs.
//
// This is the single source of truth for the database layout. All repository
// tests load it via GetSchemaSQL() so the tested schema can never drift from
// the shipped one. Keep it in sync with the migrations list when columns or
// tables change.
//
// Audit pairing is enforced in application code, not triggers: every
// state-mutating repository method wraps its field update and its
// activity_log insert in one transaction.
const SchemaSQL = `
-- Workflow records (one per ADW run)
CREATE TABLE IF NOT EXISTS workflows (
	id TEXT PRIMARY KEY CHECK(length(id) = 8),
	issue_number INTEGER CHECK(issue_number IS NULL OR issue_number > 0),
	issue_class TEXT NOT NULL CHECK(issue_class IN ('feature', 'bug', 'chore', 'patch')),
	branch_name TEXT,
	worktree_path TEXT,
	plan_file TEXT,
	patch_file TEXT,
	current_stage TEXT NOT NULL CHECK(current_stage IN ('backlog', 'plan', 'build', 'test', 'review', 'document', 'ready-to-merge', 'patch', 'errored')) DEFAULT 'backlog',
	status TEXT NOT NULL CHECK(status IN ('pending', 'in_progress', 'completed', 'errored', 'stuck')) DEFAULT 'pending',
	is_stuck INTEGER NOT NULL DEFAULT 0,
	model_set TEXT NOT NULL CHECK(model_set IN ('base', 'heavy')) DEFAULT 'base',
	data_source TEXT NOT NULL CHECK(data_source IN ('github', 'kanban')) DEFAULT 'kanban',
	stage_plan TEXT NOT NULL DEFAULT '[]',
	all_workflows_run TEXT NOT NULL DEFAULT '[]',
	patch_history TEXT NOT NULL DEFAULT '[]',
	backend_port INTEGER,
	websocket_port INTEGER,
	frontend_port INTEGER,
	pr_number INTEGER,
	pr_url TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	completed_at DATETIME,
	deleted_at DATETIME
);

-- Issue-number uniqueness is storage-enforced and scoped to live records:
-- a soft-deleted workflow releases its number.
CREATE UNIQUE INDEX IF NOT EXISTS idx_workflows_issue_number
	ON workflows(issue_number)
	WHERE issue_number IS NOT NULL AND deleted_at IS NULL;

-- Activity ledger (append-only; rows removed only by workflow hard-delete cascade)
CREATE TABLE IF NOT EXISTS activity_log (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	event_type TEXT NOT NULL CHECK(event_type IN ('state_change', 'stage_transition', 'workflow_started', 'workflow_completed', 'workflow_failed', 'error_occurred', 'user_action', 'stuck_detected', 'stuck_resolved', 'deletion_requested')),
	field_changed TEXT,
	old_value TEXT,
	new_value TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (workflow_id) REFERENCES workflows(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_activity_log_workflow
	ON activity_log(workflow_id, created_at);

-- Issue allocations (sequential numbers, soft-deletable independently)
CREATE TABLE IF NOT EXISTS issue_allocations (
	id TEXT PRIMARY KEY,
	issue_number INTEGER NOT NULL CHECK(issue_number > 0),
	issue_title TEXT NOT NULL,
	workflow_id TEXT,
	created_at DATETIME NOT NULL,
	deleted_at DATETIME,
	FOREIGN KEY (workflow_id) REFERENCES workflows(id) ON DELETE SET NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_issue_allocations_number
	ON issue_allocations(issue_number)
	WHERE deleted_at IS NULL;

-- Deletion audit records (written before any teardown/hard delete)
CREATE TABLE IF NOT EXISTS deletion_records (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	worktree_outcome TEXT NOT NULL CHECK(worktree_outcome IN ('removed', 'absent', 'failed', 'skipped')),
	output_outcome TEXT NOT NULL CHECK(output_outcome IN ('removed', 'absent', 'failed', 'skipped')),
	record_outcome TEXT NOT NULL CHECK(record_outcome IN ('removed', 'absent', 'failed', 'skipped')),
	reason TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deletion_records_workflow
	ON deletion_records(workflow_id);

-- Query views, computed from current store contents at read time
CREATE VIEW IF NOT EXISTS active_workflows AS
	SELECT * FROM workflows WHERE deleted_at IS NULL;

CREATE VIEW IF NOT EXISTS completed_workflows AS
	SELECT * FROM workflows WHERE status = 'completed' AND deleted_at IS NULL;

CREATE VIEW IF NOT EXISTS stuck_workflows AS
	SELECT * FROM workflows WHERE is_stuck = 1 AND deleted_at IS NULL;

CREATE VIEW IF NOT EXISTS recent_workflows AS
	SELECT * FROM workflows
	WHERE deleted_at IS NULL
	AND datetime(updated_at) >= datetime('now', '-1 day')
	ORDER BY datetime(updated_at) DESC;
`

// GetSchemaSQL returns the authoritative schema. Tests must load the schema
// through this function rather than hardcoding CREATE TABLE statements.
func GetSchemaSQL() string {
	return SchemaSQL
}
