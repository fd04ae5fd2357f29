// Package store provides storage backends for TripFlow sessions.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/atlasai/tripflow/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists sessions in a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the SQLite database file; the parent directory
// is created if it does not exist.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied")

	return &SQLiteStore{db: db}, nil
}

// SaveSession upserts the session record, refreshing the denormalized columns.
func (s *SQLiteStore) SaveSession(sess models.Session) error {
	touchTimestamps(&sess)
	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		slog.Error("SQLiteStore SaveSession marshal failed", "error", err, "sessionID", sess.SessionID)
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	query := `INSERT INTO travel_sessions (session_id, state, current_step, origin, destination, duration_days, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(session_id) DO UPDATE SET
			      state = excluded.state,
			      current_step = excluded.current_step,
			      origin = excluded.origin,
			      destination = excluded.destination,
			      duration_days = excluded.duration_days,
			      updated_at = excluded.updated_at`

	_, err = s.db.Exec(query, sess.SessionID, string(stateJSON), string(sess.CurrentStep),
		nilIfEmpty(sess.Origin), nilIfEmpty(sess.Destination), sess.DurationDays,
		sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "sessionID", sess.SessionID)
		return fmt.Errorf("failed to save session %s: %w", sess.SessionID, err)
	}
	slog.Debug("SQLiteStore SaveSession succeeded", "sessionID", sess.SessionID, "step", sess.CurrentStep)
	return nil
}

// GetSession retrieves a session by ID, returning nil, nil when absent.
func (s *SQLiteStore) GetSession(sessionID string) (*models.Session, error) {
	query := `SELECT session_id, state, current_step, origin, destination, duration_days, created_at, updated_at
			  FROM travel_sessions WHERE session_id = ?`

	sess, err := scanSession(s.db.QueryRow(query, sessionID))
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetSession not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "sessionID", sessionID)
		return nil, err
	}
	slog.Debug("SQLiteStore GetSession found", "sessionID", sessionID, "step", sess.CurrentStep)
	return sess, nil
}

// ListSessions returns up to limit summaries ordered by last activity descending.
func (s *SQLiteStore) ListSessions(limit int) ([]models.SessionSummary, error) {
	query := `SELECT session_id, state, current_step, origin, destination, duration_days, created_at, updated_at
			  FROM travel_sessions ORDER BY updated_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		slog.Error("SQLiteStore ListSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	summaries, err := collectSummaries(rows)
	if err != nil {
		slog.Error("SQLiteStore ListSessions scan failed", "error", err)
		return nil, err
	}
	slog.Debug("SQLiteStore ListSessions succeeded", "count", len(summaries))
	return summaries, nil
}

// DeleteAllSessions removes every session and reports the number deleted.
func (s *SQLiteStore) DeleteAllSessions() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM travel_sessions`)
	if err != nil {
		slog.Error("SQLiteStore DeleteAllSessions failed", "error", err)
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.Info("SQLiteStore DeleteAllSessions succeeded", "deleted", n)
	return n, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
