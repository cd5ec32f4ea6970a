// Package network - replay.go
// Read-only HTTP API over the live session, its event log and the archive.
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/engine"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/infra/storage"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
)

// SessionSource publishes the live session snapshot.
type SessionSource interface {
	Snapshot() engine.SessionState
}

// History reads archived sessions.
type History interface {
	RebuildSession(ctx context.Context, sessionID string) (*storage.SessionHistory, error)
	ListSessions(ctx context.Context) ([]string, error)
}

// ReplayHandler provides the session replay API.
type ReplayHandler struct {
	session  SessionSource
	eventLog *events.EventLog
	history  History // nil when storage is disabled
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler. history may be nil.
func NewReplayHandler(session SessionSource, el *events.EventLog, history History, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		session:  session,
		eventLog: el,
		history:  history,
		logger:   log,
	}
}

// ReplayResponse is the API response for the event replay.
type ReplayResponse struct {
	SessionID   string             `json:"session_id"`
	TotalEvents int                `json:"total_events"`
	FilteredBy  string             `json:"filtered_by,omitempty"`
	GeneratedAt string             `json:"generated_at"`
	Events      []events.GameEvent `json:"events"`
}

// HandleSession returns the live session snapshot.
// GET /api/session
func (rh *ReplayHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rh.writeJSON(w, rh.session.Snapshot())
}

// HandleEvents returns the in-memory event log of a session.
// GET /api/events?session_id=XXX&round=N&type=BUILD_SUCCESS
// session_id defaults to the live session.
func (rh *ReplayHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	sessionID := q.Get("session_id")
	if sessionID == "" {
		sessionID = rh.session.Snapshot().SessionID
	}
	eventType := q.Get("type")

	round := -1
	filterDesc := ""
	if roundStr := q.Get("round"); roundStr != "" {
		n, err := strconv.Atoi(roundStr)
		if err != nil || n < 0 {
			rh.jsonError(w, "Invalid round", http.StatusBadRequest)
			return
		}
		round = n
		filterDesc = "Round " + roundStr
	}
	if eventType != "" {
		if filterDesc != "" {
			filterDesc += ", "
		}
		filterDesc += "Type " + eventType
	}

	filtered := make([]events.GameEvent, 0)
	for _, e := range rh.eventLog.Replay() {
		if e.SessionID != sessionID {
			continue
		}
		if round >= 0 && e.Round != round {
			continue
		}
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		filtered = append(filtered, e)
	}

	rh.logger.Debug("Replay for " + sessionID + ": " + strconv.Itoa(len(filtered)) + " events")

	rh.writeJSON(w, ReplayResponse{
		SessionID:   sessionID,
		TotalEvents: len(filtered),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      filtered,
	})
}

// HandleStats counts the live session's events by type.
// GET /api/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := rh.session.Snapshot()
	stats := map[string]int{}
	total := 0
	for _, e := range rh.eventLog.Replay() {
		if e.SessionID != state.SessionID {
			continue
		}
		stats[string(e.Type)]++
		total++
	}

	rh.writeJSON(w, map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"session_id":   state.SessionID,
		"total_events": total,
		"toy_count":    state.ToyCount,
		"by_type":      stats,
	})
}

// HandleHistory returns an archived session with its toys and recap.
// GET /api/history?session_id=XXX
func (rh *ReplayHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if rh.history == nil {
		rh.jsonError(w, "Storage disabled", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		rh.jsonError(w, "Missing session_id", http.StatusBadRequest)
		return
	}

	h, err := rh.history.RebuildSession(r.Context(), sessionID)
	if err != nil {
		rh.logger.Error("Failed to rebuild session " + sessionID + ": " + err.Error())
		rh.jsonError(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	if h.Rounds == 0 && len(h.Toys) == 0 {
		rh.jsonError(w, "Session not found", http.StatusNotFound)
		return
	}
	rh.writeJSON(w, h)
}

// HandleSessions lists archived sessions.
// GET /api/sessions
func (rh *ReplayHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if rh.history == nil {
		rh.jsonError(w, "Storage disabled", http.StatusServiceUnavailable)
		return
	}

	ids, err := rh.history.ListSessions(r.Context())
	if err != nil {
		rh.logger.Error("Failed to list sessions: " + err.Error())
		rh.jsonError(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	rh.writeJSON(w, map[string]interface{}{"sessions": ids})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/session", rh.HandleSession)
	mux.HandleFunc("/api/events", rh.HandleEvents)
	mux.HandleFunc("/api/stats", rh.HandleStats)
	mux.HandleFunc("/api/history", rh.HandleHistory)
	mux.HandleFunc("/api/sessions", rh.HandleSessions)
}

func (rh *ReplayHandler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rh.logger.Warn("Failed to encode response: " + err.Error())
	}
}

// jsonError sends an error response.
func (rh *ReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
