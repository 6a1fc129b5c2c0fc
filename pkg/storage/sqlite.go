// Package storage persists the collector session index in SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/goax/pkg/domain/session"
	"github.com/dshills/goax/pkg/domain/types"
	axerrors "github.com/dshills/goax/pkg/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DatabaseName is the index file created inside the goax config directory.
const DatabaseName = "goax.db"

// SQLiteSessionRepository implements session.Repository using SQLite storage.
type SQLiteSessionRepository struct {
	db *sql.DB
}

var _ session.Repository = (*SQLiteSessionRepository)(nil)

// NewSQLiteSessionRepository opens the index at ~/.goax/goax.db.
func NewSQLiteSessionRepository() (*SQLiteSessionRepository, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return NewSQLiteSessionRepositoryWithPath(filepath.Join(homeDir, ".goax", DatabaseName))
}

// NewSQLiteSessionRepositoryWithPath opens the index at dbPath, creating the
// file and its directory when needed.
func NewSQLiteSessionRepositoryWithPath(dbPath string) (*SQLiteSessionRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	if err := InitializeDatabase(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &SQLiteSessionRepository{db: db}, nil
}

// Close closes the database connection.
func (r *SQLiteSessionRepository) Close() error {
	return r.db.Close()
}

// Save persists a session, updating it if it already exists.
func (r *SQLiteSessionRepository) Save(s *session.Session) error {
	if s == nil {
		return fmt.Errorf("cannot save nil session")
	}
	if s.ID.IsZero() {
		return fmt.Errorf("session ID cannot be empty")
	}

	var completedAt sql.NullTime
	if !s.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: s.CompletedAt, Valid: true}
	}
	errorMessage := sql.NullString{String: s.Error, Valid: s.Error != ""}
	appFilter := sql.NullString{String: s.Config.AppFilter, Valid: s.Config.AppFilter != ""}

	query := `
		INSERT INTO sessions (
			id, output_path, app_filter, auto, dry_run, status,
			started_at, completed_at, sample_count, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			completed_at = excluded.completed_at,
			sample_count = excluded.sample_count,
			error_message = excluded.error_message
	`

	_, err := r.db.Exec(query,
		s.ID.String(),
		s.Config.OutputPath,
		appFilter,
		s.Config.Auto,
		s.Config.DryRun,
		string(s.Status),
		s.StartedAt,
		completedAt,
		s.SampleCount,
		errorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

const sessionColumns = `id, output_path, app_filter, auto, dry_run, status,
	started_at, completed_at, sample_count, error_message`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*session.Session, error) {
	var s session.Session
	var id, status string
	var appFilter, errorMessage sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&id,
		&s.Config.OutputPath,
		&appFilter,
		&s.Config.Auto,
		&s.Config.DryRun,
		&status,
		&s.StartedAt,
		&completedAt,
		&s.SampleCount,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	s.ID = types.SessionID(id)
	s.Status = session.Status(status)
	s.Config.AppFilter = appFilter.String
	s.Error = errorMessage.String
	if completedAt.Valid {
		s.CompletedAt = completedAt.Time
	}
	return &s, nil
}

// Load retrieves a session by its ID, or a NotFound error.
func (r *SQLiteSessionRepository) Load(id types.SessionID) (*session.Session, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("session ID cannot be empty")
	}

	row := r.db.QueryRow("SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id.String())
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, axerrors.New(axerrors.NotFound, "load session", "session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return s, nil
}

// LoadPrefix resolves a session from a unique id prefix, as printed by the
// sessions listing.
func (r *SQLiteSessionRepository) LoadPrefix(prefix string) (*session.Session, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("session ID cannot be empty")
	}

	rows, err := r.db.Query("SELECT "+sessionColumns+" FROM sessions WHERE id LIKE ? LIMIT 2", prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var found []*session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		found = append(found, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, axerrors.New(axerrors.NotFound, "load session", "no session matches %q", prefix)
	case 1:
		return found[0], nil
	default:
		return nil, axerrors.New(axerrors.Invalid, "load session", "session prefix %q is ambiguous", prefix)
	}
}

// List returns sessions ordered by start time, newest first.
func (r *SQLiteSessionRepository) List(opts session.ListOptions) (*session.ListResult, error) {
	if opts.Limit < 0 {
		return nil, fmt.Errorf("limit cannot be negative: %d", opts.Limit)
	}
	if opts.Offset < 0 {
		return nil, fmt.Errorf("offset cannot be negative: %d", opts.Offset)
	}

	var where string
	var args []interface{}
	if opts.Status != "" {
		where = " WHERE status = ?"
		args = append(args, string(opts.Status))
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM sessions"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	query := "SELECT " + sessionColumns + " FROM sessions" + where + " ORDER BY started_at DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", opts.Limit, opts.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := make([]*session.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return &session.ListResult{Sessions: sessions, TotalCount: total}, nil
}

// Delete removes a session and its sample records.
func (r *SQLiteSessionRepository) Delete(id types.SessionID) error {
	if id.IsZero() {
		return fmt.Errorf("session ID cannot be empty")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Foreign keys are off by default in SQLite, so samples go first.
	if _, err := tx.Exec("DELETE FROM samples WHERE session_id = ?", id.String()); err != nil {
		return fmt.Errorf("failed to delete samples: %w", err)
	}
	result, err := tx.Exec("DELETE FROM sessions WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rowsAffected == 0 {
		return axerrors.New(axerrors.NotFound, "delete session", "session not found: %s", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveSample appends a sample record to a session's index.
func (r *SQLiteSessionRepository) SaveSample(rec *session.SampleRecord) error {
	if rec == nil {
		return fmt.Errorf("cannot save nil sample record")
	}
	if rec.SessionID.IsZero() {
		return fmt.Errorf("sample record has no session ID")
	}

	query := `
		INSERT INTO samples (
			session_id, seq, command, action_type, target_element_id,
			target_role, target_label, focused_app, line, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		rec.SessionID.String(),
		rec.Seq,
		rec.Command,
		rec.ActionType,
		int(rec.TargetElementID),
		rec.TargetRole,
		rec.TargetLabel,
		rec.FocusedApp,
		rec.Line,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save sample record: %w", err)
	}
	return nil
}

// ListSamples returns a session's sample records in write order.
func (r *SQLiteSessionRepository) ListSamples(id types.SessionID) ([]*session.SampleRecord, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("session ID cannot be empty")
	}

	query := `
		SELECT session_id, seq, command, action_type, target_element_id,
		       target_role, target_label, focused_app, line, created_at
		FROM samples
		WHERE session_id = ?
		ORDER BY seq
	`
	rows, err := r.db.Query(query, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query sample records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*session.SampleRecord, 0, 32)
	for rows.Next() {
		var rec session.SampleRecord
		var sessionID string
		var target int
		var actionType, role, label, app sql.NullString

		if err := rows.Scan(
			&sessionID,
			&rec.Seq,
			&rec.Command,
			&actionType,
			&target,
			&role,
			&label,
			&app,
			&rec.Line,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sample record: %w", err)
		}
		rec.SessionID = types.SessionID(sessionID)
		rec.TargetElementID = types.ElementID(target)
		rec.ActionType = actionType.String
		rec.TargetRole = role.String
		rec.TargetLabel = label.String
		rec.FocusedApp = app.String
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sample records: %w", err)
	}
	return records, nil
}

// RoleCounts aggregates indexed samples by target role across all sessions.
func (r *SQLiteSessionRepository) RoleCounts() (map[string]int, error) {
	rows, err := r.db.Query("SELECT COALESCE(target_role, ''), COUNT(*) FROM samples GROUP BY target_role")
	if err != nil {
		return nil, fmt.Errorf("failed to count samples by role: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("failed to scan role count: %w", err)
		}
		out[role] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role counts: %w", err)
	}
	return out, nil
}
