// Package session exposes trip-state persistence keyed by session ID,
// translating between the engine's TripState and the store's Session
// record.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlasai/tripflow/internal/models"
	"github.com/atlasai/tripflow/internal/store"
)

// DefaultListLimit bounds session listings when no limit is given.
const DefaultListLimit = 50

// Service loads and saves conversation state for the flow engine.
type Service struct {
	store store.Store
}

// NewService creates a session service over the given store.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Load returns the persisted trip state for a session, or nil, nil when
// the session has no history yet.
func (s *Service) Load(ctx context.Context, sessionID string) (*models.TripState, error) {
	if sessionID == "" {
		return nil, models.ErrEmptySessionID
	}
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		slog.Error("Service.Load failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if sess == nil || sess.State == nil {
		slog.Debug("Service.Load: no prior state", "sessionID", sessionID)
		return nil, nil
	}
	slog.Debug("Service.Load succeeded", "sessionID", sessionID, "step", sess.State.CurrentStep)
	return sess.State, nil
}

// Save upserts the session record, refreshing the denormalized columns
// from the state blob.
func (s *Service) Save(ctx context.Context, sessionID string, state *models.TripState) error {
	if sessionID == "" {
		return models.ErrEmptySessionID
	}
	sess := models.Session{
		SessionID:    sessionID,
		State:        state,
		CurrentStep:  state.CurrentStep,
		Origin:       state.Origin,
		Destination:  state.Destination,
		DurationDays: state.DurationDays,
	}
	if err := s.store.SaveSession(sess); err != nil {
		slog.Error("Service.Save failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	slog.Debug("Service.Save succeeded", "sessionID", sessionID, "step", state.CurrentStep)
	return nil
}

// List returns up to limit session summaries ordered by most recent
// activity.
func (s *Service) List(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	summaries, err := s.store.ListSessions(limit)
	if err != nil {
		slog.Error("Service.List failed", "error", err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return summaries, nil
}

// Get returns the full session record, or nil, nil when absent.
func (s *Service) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, models.ErrEmptySessionID
	}
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		slog.Error("Service.Get failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return sess, nil
}

// Clear deletes every session and reports the number removed.
func (s *Service) Clear(ctx context.Context) (int, error) {
	n, err := s.store.DeleteAllSessions()
	if err != nil {
		slog.Error("Service.Clear failed", "error", err)
		return 0, fmt.Errorf("failed to clear sessions: %w", err)
	}
	slog.Info("Service.Clear succeeded", "deleted", n)
	return int(n), nil
}
