// Package store provides storage backends for TripFlow sessions.
//
// It includes an in-memory store for tests and development plus persistent
// SQLite and PostgreSQL implementations. The session blob is the source of
// truth; the denormalized columns exist only to make listings cheap.
package store

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/atlasai/tripflow/internal/models"
)

// Store defines the persistence contract consumed by the session service.
// SaveSession must behave as an upsert: last write wins on conflicting keys.
type Store interface {
	SaveSession(s models.Session) error
	// GetSession returns nil, nil when the session does not exist.
	GetSession(sessionID string) (*models.Session, error)
	ListSessions(limit int) ([]models.SessionSummary, error)
	DeleteAllSessions() (int64, error)
	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store implementations.
type Option func(*Opts)

// WithDSN sets the database DSN (file path for SQLite, connection URL for Postgres).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// InMemoryStore is a map-backed Store used in tests and single-process development.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]string // session ID -> serialized session
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]string)}
}

// SaveSession stores the session, replacing any prior record with the same ID.
// CreatedAt survives the upsert; UpdatedAt is refreshed on every save.
func (s *InMemoryStore) SaveSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prior, ok := s.sessions[sess.SessionID]; ok && sess.CreatedAt.IsZero() {
		var existing models.Session
		if err := json.Unmarshal([]byte(prior), &existing); err == nil {
			sess.CreatedAt = existing.CreatedAt
		}
	}
	touchTimestamps(&sess)
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.sessions[sess.SessionID] = string(data)
	return nil
}

// GetSession returns the stored session, or nil, nil if absent.
func (s *InMemoryStore) GetSession(sessionID string) (*models.Session, error) {
	s.mu.RLock()
	data, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListSessions returns up to limit summaries ordered by last activity descending.
func (s *InMemoryStore) ListSessions(limit int) ([]models.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]models.SessionSummary, 0, len(s.sessions))
	for _, data := range s.sessions {
		var sess models.Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			return nil, err
		}
		summaries = append(summaries, summarize(sess))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastActivity.After(summaries[j].LastActivity)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// DeleteAllSessions removes every session and reports how many were removed.
func (s *InMemoryStore) DeleteAllSessions() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.sessions))
	s.sessions = make(map[string]string)
	return n, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

// summarize builds the listing row from a full session record.
func summarize(sess models.Session) models.SessionSummary {
	summary := models.SessionSummary{
		SessionID:    sess.SessionID,
		LastActivity: sess.UpdatedAt,
		CreatedAt:    sess.CreatedAt,
		CurrentStep:  sess.CurrentStep,
	}
	if sess.State != nil {
		summary.TripDetails = sess.State.Progress()
	}
	return summary
}

// touchTimestamps fills CreatedAt/UpdatedAt before a save so that listings
// order correctly even when callers leave them zero.
func touchTimestamps(sess *models.Session) {
	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
}
