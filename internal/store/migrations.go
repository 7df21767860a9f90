package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	// Create the schema_version table if it does not exist.
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates all initial tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id               TEXT PRIMARY KEY,
			created_at       TEXT NOT NULL,
			command          TEXT NOT NULL,
			version          TEXT NOT NULL,
			window_from      TEXT,
			window_to        TEXT,
			schedule_size    INTEGER NOT NULL,
			session_count    INTEGER NOT NULL,
			rule_count       INTEGER NOT NULL,
			advice_count     INTEGER NOT NULL,
			attendance_delta REAL NOT NULL,
			fill_rate_delta  REAL NOT NULL,
			advisor_code     TEXT,
			advisor_message  TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS suggestions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			suggestion_id TEXT NOT NULL,
			ordinal       INTEGER NOT NULL,
			type          TEXT NOT NULL,
			priority      INTEGER NOT NULL,
			confidence    REAL NOT NULL,
			source        TEXT NOT NULL,
			class_id      TEXT,
			location      TEXT,
			trainer       TEXT,
			payload       TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'open',
			reviewed_at   TEXT
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_run ON suggestions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_sid ON suggestions(suggestion_id)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_status ON suggestions(status)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	// Set schema version.
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
