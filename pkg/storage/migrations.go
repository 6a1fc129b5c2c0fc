package storage

import (
	"database/sql"
	"fmt"
)

// MigrationVersion tracks the current database schema version.
const MigrationVersion = 2

// InitializeDatabase creates the SQLite schema for the collector session index,
// applying any migrations newer than the recorded version.
func InitializeDatabase(db *sql.DB) error {
	migrationsTable := `
	CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL UNIQUE,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(migrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to check migration version: %w", err)
	}

	migrations := []func(*sql.Tx) error{applyMigration1, applyMigration2}
	for i, apply := range migrations {
		version := i + 1
		if currentVersion >= version {
			continue
		}
		if err := runMigration(db, version, apply); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}
	}

	return nil
}

func runMigration(db *sql.DB, version int, apply func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := apply(tx); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// applyMigration1 creates the sessions and samples tables.
func applyMigration1(tx *sql.Tx) error {
	sessionsTable := `
	CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		output_path TEXT NOT NULL,
		app_filter TEXT,
		auto INTEGER NOT NULL DEFAULT 0,
		dry_run INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		sample_count INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := tx.Exec(sessionsTable); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	sessionIndexes := []string{
		"CREATE INDEX idx_sessions_started_at ON sessions(started_at DESC);",
		"CREATE INDEX idx_sessions_status ON sessions(status, started_at DESC);",
	}
	for _, idx := range sessionIndexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create session index: %w", err)
		}
	}

	// One row per sample written; the sample itself lives in the dataset at line.
	samplesTable := `
	CREATE TABLE samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		command TEXT NOT NULL,
		action_type TEXT,
		target_element_id INTEGER NOT NULL,
		target_role TEXT,
		target_label TEXT,
		focused_app TEXT,
		line INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE,
		UNIQUE (session_id, seq)
	);`

	if _, err := tx.Exec(samplesTable); err != nil {
		return fmt.Errorf("failed to create samples table: %w", err)
	}
	if _, err := tx.Exec("CREATE INDEX idx_samples_session ON samples(session_id, seq);"); err != nil {
		return fmt.Errorf("failed to create sample index: %w", err)
	}
	return nil
}

// applyMigration2 adds role lookups for dataset balancing queries.
func applyMigration2(tx *sql.Tx) error {
	if _, err := tx.Exec("CREATE INDEX idx_samples_role ON samples(target_role);"); err != nil {
		return fmt.Errorf("failed to create sample role index: %w", err)
	}
	return nil
}
