package network

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/catalog"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/request"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/engine"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/infra/storage"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
)

type workshop struct {
	ticker *engine.Ticker
	log    *events.EventLog
	hub    *Hub
	server *httptest.Server
}

func newWorkshop(t *testing.T, opts HubOptions) *workshop {
	t.Helper()
	var defs []*piece.Definition
	var ids []string
	for _, k := range piece.Kinds {
		id := strings.ToLower(k.String()) + "_red"
		defs = append(defs, &piece.Definition{ID: id, Kind: k, Tags: []string{"red"}})
		ids = append(ids, id)
	}
	cat, err := catalog.New(defs, []catalog.SetSpec{{Name: "red", Pieces: ids}})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	gen, err := request.NewGenerator([]string{"Ada"}, []string{"red", "blue"}, 1, nil, rng)
	require.NoError(t, err)

	settings := engine.DefaultSettings()
	settings.PiecesPerRound = 5
	settings.SpawnDuration = 50 * time.Millisecond

	el := events.NewEventLog(nil)
	eng, err := engine.NewEngine(el, logger.Discard(), settings, engine.Content{Catalog: cat, Requests: gen}, engine.WithRand(rng))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tk := engine.NewTicker(eng, logger.Discard(), 5*time.Millisecond, 64)
	go tk.Start(ctx)
	t.Cleanup(tk.Stop)

	hub := NewHub(tk, logger.Discard(), opts)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, el, 5*time.Millisecond)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	NewReplayHandler(tk, el, nil, logger.Discard()).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &workshop{ticker: tk, log: el, hub: hub, server: srv}
}

func (w *workshop) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(w.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Error   string `json:"error"`
}

// readUntil reads frames until one has the wanted type.
func readUntil(t *testing.T, conn *websocket.Conn, want string) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", want)
		var f frame
		require.NoError(t, json.Unmarshal(msg, &f))
		if f.Type == want {
			return f
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, action PlayerAction) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(action))
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ClientCount() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestReadyStartsRoundAndEventsAreBroadcast(t *testing.T) {
	w := newWorkshop(t, HubOptions{})
	conn := w.dial(t)
	waitForClients(t, w.hub, 1)

	send(t, conn, PlayerAction{Type: MessageReady})
	readUntil(t, conn, string(events.EventTypeRoundStarted))
	readUntil(t, conn, string(events.EventTypePieceSpawn))
	readUntil(t, conn, string(events.EventTypeBuildStarted))
}

func TestRejectedActionIsReportedToSender(t *testing.T) {
	w := newWorkshop(t, HubOptions{})
	conn := w.dial(t)
	waitForClients(t, w.hub, 1)

	send(t, conn, PlayerAction{Type: MessageDrop, PieceID: "head_red", Anchor: piece.KindHead})
	f := readUntil(t, conn, MessageError)
	assert.Equal(t, MessageDrop, f.Command)
	assert.Contains(t, f.Error, engine.ErrNotBuilding.Error())

	send(t, conn, PlayerAction{Type: MessagePlayAgain})
	f = readUntil(t, conn, MessageError)
	assert.Equal(t, MessagePlayAgain, f.Command)

	send(t, conn, PlayerAction{Type: "DANCE"})
	f = readUntil(t, conn, MessageError)
	assert.Equal(t, "unknown action", f.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	f = readUntil(t, conn, MessageError)
	assert.Equal(t, "malformed action", f.Error)
}

func TestClientRateLimit(t *testing.T) {
	w := newWorkshop(t, HubOptions{MessagesPerSecond: 1})
	conn := w.dial(t)
	waitForClients(t, w.hub, 1)

	send(t, conn, PlayerAction{Type: MessageUnready})
	send(t, conn, PlayerAction{Type: MessageUnready})
	f := readUntil(t, conn, MessageError)
	assert.Equal(t, "rate limit exceeded", f.Error)
}

func TestHubRejectsClientsOverLimit(t *testing.T) {
	w := newWorkshop(t, HubOptions{MaxClients: 1})
	w.dial(t)
	waitForClients(t, w.hub, 1)

	second := w.dial(t)
	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := second.ReadMessage()
	var closeErr *websocket.CloseError
	assert.True(t, errors.As(err, &closeErr), "expected a close frame, got %v", err)
	assert.Equal(t, 1, w.hub.ClientCount())
}

func TestCheckOrigin(t *testing.T) {
	h := NewHub(nil, logger.Discard(), HubOptions{AllowedOrigins: []string{"http://toys.local"}})

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "http://toys.local")
	assert.True(t, h.checkOrigin(r))

	r.Header.Set("Origin", "http://evil.local")
	assert.False(t, h.checkOrigin(r))

	open := NewHub(nil, logger.Discard(), HubOptions{})
	assert.True(t, open.checkOrigin(r))
}

// ---------------------------------------------------------
// Replay API
// ---------------------------------------------------------

type fixedSession struct{ state engine.SessionState }

func (f fixedSession) Snapshot() engine.SessionState { return f.state }

type fakeHistory struct {
	sessions []string
	byID     map[string]*storage.SessionHistory
	err      error
}

func (f *fakeHistory) RebuildSession(_ context.Context, id string) (*storage.SessionHistory, error) {
	if f.err != nil {
		return nil, f.err
	}
	if h, ok := f.byID[id]; ok {
		return h, nil
	}
	return &storage.SessionHistory{SessionID: id}, nil
}

func (f *fakeHistory) ListSessions(context.Context) ([]string, error) {
	return f.sessions, f.err
}

func replayFixture(history History) (*http.ServeMux, *events.EventLog) {
	el := events.NewEventLog(nil)
	el.Append(events.GameEvent{SessionID: "S1", Type: events.EventTypeRoundStarted, Round: 1})
	el.Append(events.GameEvent{SessionID: "S1", Type: events.EventTypePieceSpawn, Round: 1})
	el.Append(events.GameEvent{SessionID: "S1", Type: events.EventTypeRoundStarted, Round: 2})
	el.Append(events.GameEvent{SessionID: "S0", Type: events.EventTypeGameOver, Round: 4})

	session := fixedSession{engine.SessionState{Phase: engine.PhaseBuilding, SessionID: "S1", Round: 2, ToyCount: 1}}
	mux := http.NewServeMux()
	NewReplayHandler(session, el, history, logger.Discard()).RegisterRoutes(mux)
	return mux, el
}

func get(t *testing.T, mux *http.ServeMux, url string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec.Code
}

func TestHandleSession(t *testing.T) {
	mux, _ := replayFixture(nil)

	var state map[string]interface{}
	require.Equal(t, http.StatusOK, get(t, mux, "/api/session", &state))
	assert.Equal(t, "BUILDING", state["phase"])
	assert.Equal(t, "S1", state["session_id"])

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleEventsFilters(t *testing.T) {
	mux, _ := replayFixture(nil)

	var resp ReplayResponse
	require.Equal(t, http.StatusOK, get(t, mux, "/api/events", &resp))
	assert.Equal(t, "S1", resp.SessionID)
	assert.Equal(t, 3, resp.TotalEvents)

	resp = ReplayResponse{}
	require.Equal(t, http.StatusOK, get(t, mux, "/api/events?round=1&type=ROUND_STARTED", &resp))
	assert.Equal(t, 1, resp.TotalEvents)
	assert.Equal(t, "Round 1, Type ROUND_STARTED", resp.FilteredBy)

	resp = ReplayResponse{}
	require.Equal(t, http.StatusOK, get(t, mux, "/api/events?session_id=S0", &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, events.EventTypeGameOver, resp.Events[0].Type)

	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/events?round=x", nil))
}

func TestHandleStats(t *testing.T) {
	mux, _ := replayFixture(nil)

	var stats struct {
		TotalEvents int            `json:"total_events"`
		ByType      map[string]int `json:"by_type"`
	}
	require.Equal(t, http.StatusOK, get(t, mux, "/api/stats", &stats))
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 2, stats.ByType["ROUND_STARTED"])
}

func TestHandleHistory(t *testing.T) {
	mux, _ := replayFixture(nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, mux, "/api/history?session_id=S1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, get(t, mux, "/api/sessions", nil))

	history := &fakeHistory{
		sessions: []string{"S1", "S0"},
		byID: map[string]*storage.SessionHistory{
			"S1": {SessionID: "S1", Rounds: 2, ToysBuilt: 1},
		},
	}
	mux, _ = replayFixture(history)

	var h storage.SessionHistory
	require.Equal(t, http.StatusOK, get(t, mux, "/api/history?session_id=S1", &h))
	assert.Equal(t, 2, h.Rounds)

	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/history", nil))
	assert.Equal(t, http.StatusNotFound, get(t, mux, "/api/history?session_id=nope", nil))

	var list struct {
		Sessions []string `json:"sessions"`
	}
	require.Equal(t, http.StatusOK, get(t, mux, "/api/sessions", &list))
	assert.Equal(t, []string{"S1", "S0"}, list.Sessions)

	history.err = errors.New("disk on fire")
	assert.Equal(t, http.StatusInternalServerError, get(t, mux, "/api/history?session_id=S1", nil))
	assert.Equal(t, http.StatusInternalServerError, get(t, mux, "/api/sessions", nil))
}
