// Package store provides storage backends for TripFlow sessions.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/atlasai/tripflow/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied")

	return &PostgresStore{db: db}, nil
}

// SaveSession upserts the session record, refreshing the denormalized columns.
func (s *PostgresStore) SaveSession(sess models.Session) error {
	touchTimestamps(&sess)
	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		slog.Error("PostgresStore SaveSession marshal failed", "error", err, "sessionID", sess.SessionID)
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	query := `INSERT INTO travel_sessions (session_id, state, current_step, origin, destination, duration_days, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (session_id) DO UPDATE SET
			      state = EXCLUDED.state,
			      current_step = EXCLUDED.current_step,
			      origin = EXCLUDED.origin,
			      destination = EXCLUDED.destination,
			      duration_days = EXCLUDED.duration_days,
			      updated_at = EXCLUDED.updated_at`

	_, err = s.db.Exec(query, sess.SessionID, string(stateJSON), string(sess.CurrentStep),
		nilIfEmpty(sess.Origin), nilIfEmpty(sess.Destination), sess.DurationDays,
		sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "sessionID", sess.SessionID)
		return fmt.Errorf("failed to save session %s: %w", sess.SessionID, err)
	}
	slog.Debug("PostgresStore SaveSession succeeded", "sessionID", sess.SessionID, "step", sess.CurrentStep)
	return nil
}

// GetSession retrieves a session by ID, returning nil, nil when absent.
func (s *PostgresStore) GetSession(sessionID string) (*models.Session, error) {
	query := `SELECT session_id, state, current_step, origin, destination, duration_days, created_at, updated_at
			  FROM travel_sessions WHERE session_id = $1`

	sess, err := scanSession(s.db.QueryRow(query, sessionID))
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetSession not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "sessionID", sessionID)
		return nil, err
	}
	slog.Debug("PostgresStore GetSession found", "sessionID", sessionID, "step", sess.CurrentStep)
	return sess, nil
}

// ListSessions returns up to limit summaries ordered by last activity descending.
func (s *PostgresStore) ListSessions(limit int) ([]models.SessionSummary, error) {
	query := `SELECT session_id, state, current_step, origin, destination, duration_days, created_at, updated_at
			  FROM travel_sessions ORDER BY updated_at DESC LIMIT $1`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		slog.Error("PostgresStore ListSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	summaries, err := collectSummaries(rows)
	if err != nil {
		slog.Error("PostgresStore ListSessions scan failed", "error", err)
		return nil, err
	}
	slog.Debug("PostgresStore ListSessions succeeded", "count", len(summaries))
	return summaries, nil
}

// DeleteAllSessions removes every session and reports the number deleted.
func (s *PostgresStore) DeleteAllSessions() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM travel_sessions`)
	if err != nil {
		slog.Error("PostgresStore DeleteAllSessions failed", "error", err)
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.Info("PostgresStore DeleteAllSessions succeeded", "deleted", n)
	return n, nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
