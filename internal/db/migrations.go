package db

import (
	"database/sql"
	"fmt"
)

// Migration is one versioned schema change. Up runs on the same
// transaction that records the version, so a failed migration leaves
// neither DDL nor a version row behind.
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the ordered list of all migrations. Fresh installs get the
// full SchemaSQL; upgrades replay whatever is newer than their recorded
// version.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "add_patch_file_column",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_pr_reference_columns",
		Up:      migrationV2,
	},
}

// RunMigrations applies pending migrations to the given database.
func RunMigrations(database *sql.DB) error {
	_, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err = database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := database.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// hasColumn reports whether a table already has the named column.
func hasColumn(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// migrationV1 adds patch_file for patch-class workflows that predate it.
func migrationV1(tx *sql.Tx) error {
	ok, err := hasColumn(tx, "workflows", "patch_file")
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	_, err = tx.Exec("ALTER TABLE workflows ADD COLUMN patch_file TEXT")
	return err
}

// migrationV2 adds PR number/URL references for GitHub-sourced workflows.
func migrationV2(tx *sql.Tx) error {
	for _, stmt := range []struct{ column, ddl string }{
		{"pr_number", "ALTER TABLE workflows ADD COLUMN pr_number INTEGER"},
		{"pr_url", "ALTER TABLE workflows ADD COLUMN pr_url TEXT"},
	} {
		ok, err := hasColumn(tx, "workflows", stmt.column)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if _, err := tx.Exec(stmt.ddl); err != nil {
			return err
		}
	}
	return nil
}
