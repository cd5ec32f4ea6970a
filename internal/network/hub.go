package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/engine"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
)

// DefaultPollInterval is how often the hub looks for new events to broadcast.
const DefaultPollInterval = 50 * time.Millisecond

// Observer receives websocket measurements.
type Observer interface {
	RecordWSConnection(delta int)
	RecordWSMessage(incoming bool)
	RecordWSError()
}

type nopObserver struct{}

func (nopObserver) RecordWSConnection(int) {}
func (nopObserver) RecordWSMessage(bool)   {}
func (nopObserver) RecordWSError()         {}

// HubOptions sizes the hub's buffers and per-client limits.
type HubOptions struct {
	BroadcastBuffer   int
	ClientSendBuffer  int
	MessagesPerSecond int
	MaxClients        int
	CommandTimeout    time.Duration
	AllowedOrigins    []string // empty allows any origin
	Observer          Observer
}

// DefaultHubOptions returns the limits used when none are configured.
func DefaultHubOptions() HubOptions {
	return HubOptions{
		BroadcastBuffer:   256,
		ClientSendBuffer:  64,
		MessagesPerSecond: 20,
		MaxClients:        50,
		CommandTimeout:    2 * time.Second,
	}
}

// Hub maintains the set of active clients, broadcasts engine events to them
// and forwards their actions to the ticker.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *logger.Logger
	ticker     *engine.Ticker
	opts       HubOptions
	observer   Observer
	done       chan struct{}
}

// NewHub initializes a new WebSocket Hub.
func NewHub(ticker *engine.Ticker, log *logger.Logger, opts HubOptions) *Hub {
	def := DefaultHubOptions()
	if opts.BroadcastBuffer <= 0 {
		opts.BroadcastBuffer = def.BroadcastBuffer
	}
	if opts.ClientSendBuffer <= 0 {
		opts.ClientSendBuffer = def.ClientSendBuffer
	}
	if opts.MessagesPerSecond <= 0 {
		opts.MessagesPerSecond = def.MessagesPerSecond
	}
	if opts.MaxClients <= 0 {
		opts.MaxClients = def.MaxClients
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = def.CommandTimeout
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	return &Hub{
		broadcast:  make(chan []byte, opts.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     log,
		ticker:     ticker,
		opts:       opts,
		observer:   obs,
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= h.opts.MaxClients {
				h.mu.Unlock()
				h.logger.Warn("Rejecting WebSocket client " + client.id + ": " + strconv.Itoa(h.opts.MaxClients) + " clients connected")
				close(client.send)
				continue
			}
			h.clients[client] = true
			h.mu.Unlock()
			h.observer.RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected: " + client.id)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.observer.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected: " + client.id)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer
					close(client.send)
					delete(h.clients, client)
					h.observer.RecordWSConnection(-1)
					h.observer.RecordWSError()
					h.logger.Warn("Dropping slow WebSocket client " + client.id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastEvent takes a GameEvent, serializes it to JSON, and sends it to all connected clients.
func (h *Hub) BroadcastEvent(ctx context.Context, event events.GameEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to serialize GameEvent for WebSocket broadcast: " + err.Error())
		return
	}
	select {
	case h.broadcast <- payload:
	case <-ctx.Done():
	}
}

// StartEventPoller spawns a goroutine that polls the EventLog and pushes new
// events to the Hub, so the Hub runs independently from the ticker.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	go func() {
		pollInterval := time.NewTicker(interval)
		defer pollInterval.Stop()

		lastProcessedEvent := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				newEvents := eventLog.Since(lastProcessedEvent)
				for _, event := range newEvents {
					h.BroadcastEvent(ctx, event)
				}
				lastProcessedEvent += len(newEvents)
			}
		}
	}()
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.observer.RecordWSError()
		h.logger.Error("Failed to upgrade websocket connection: " + err.Error())
		return
	}

	client := NewClient(h, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.opts.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
