// Package api provides the TripFlow endpoint handlers.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/atlasai/tripflow/internal/models"
)

// chatHandler handles POST /chat: one conversation turn.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("chatHandler invoked", "method", r.Method)
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("chatHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Message must not be empty"))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
		slog.Debug("chatHandler created session", "sessionID", sessionID)
	}

	ctx := r.Context()
	prior, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		slog.Error("chatHandler load failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}

	state := s.engine.Advance(ctx, req.Message, prior)

	// A failed save must not lose the computed turn: the response is still
	// returned, flagged as unpersisted.
	persisted := true
	if err := s.sessions.Save(ctx, sessionID, state); err != nil {
		slog.Error("chatHandler save failed, returning unpersisted turn", "error", err, "sessionID", sessionID)
		persisted = false
	}

	if state.CurrentStep == models.StepComplete && req.NotifySMS != "" {
		s.sendItinerary(ctx, req.NotifySMS, state.Response)
	}

	progress := state.Progress()
	writeJSONResponse(w, http.StatusOK, models.Success(models.ChatResponse{
		Response:           state.Response,
		SessionID:          sessionID,
		CurrentStep:        state.CurrentStep,
		AwaitingUserChoice: state.AwaitingUserChoice,
		TripProgress:       &progress,
		Persisted:          persisted,
	}))
}

// sendItinerary delivers the finished itinerary by SMS. Failure is
// logged, never surfaced to the chat caller.
func (s *Server) sendItinerary(ctx context.Context, to, body string) {
	if s.notifier == nil {
		slog.Debug("sendItinerary skipped: no notifier configured")
		return
	}
	if err := s.notifier.Send(ctx, to, body); err != nil {
		slog.Error("sendItinerary failed", "error", err, "to", to)
		return
	}
	slog.Info("sendItinerary delivered", "to", to)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("TripFlow API is healthy", nil))
}

// sessionsHandler handles GET /sessions: recent session summaries.
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("sessionsHandler invoked", "method", r.Method)
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid limit parameter"))
			return
		}
		limit = n
	}

	summaries, err := s.sessions.List(r.Context(), limit)
	if err != nil {
		slog.Error("sessionsHandler list failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list sessions"))
		return
	}
	if summaries == nil {
		summaries = []models.SessionSummary{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(summaries))
}

// sessionDetailHandler handles GET /sessions/{id}: the full session record.
func (s *Server) sessionDetailHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("sessionDetailHandler invoked", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid session ID"))
		return
	}

	sess, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		slog.Error("sessionDetailHandler get failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get session"))
		return
	}
	if sess == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sess))
}

// conversationHistoryHandler handles GET /conversation-history/{id}.
func (s *Server) conversationHistoryHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("conversationHistoryHandler invoked", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/conversation-history/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid session ID"))
		return
	}

	state, err := s.sessions.Load(r.Context(), sessionID)
	if err != nil {
		slog.Error("conversationHistoryHandler load failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if state == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	history := state.ConversationHistory
	if history == nil {
		history = []models.Message{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(history))
}

// clearSessionsHandler handles POST /clear-sessions: delete everything.
func (s *Server) clearSessionsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("clearSessionsHandler invoked", "method", r.Method)
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	deleted, err := s.sessions.Clear(r.Context())
	if err != nil {
		slog.Error("clearSessionsHandler failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to clear sessions"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Sessions cleared", map[string]int{"deleted": deleted}))
}
