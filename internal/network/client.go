package network

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/engine"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Inbound message types.
const (
	MessageReady     = "READY"
	MessageUnready   = "UNREADY"
	MessageDrop      = "DROP"
	MessagePlayAgain = "PLAY_AGAIN"
)

// MessageError is the type of the frame sent back when an action is refused.
const MessageError = "ERROR"

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type    string     `json:"type"`               // READY, UNREADY, DROP, PLAY_AGAIN
	PieceID string     `json:"piece_id,omitempty"` // DROP only
	Anchor  piece.Kind `json:"anchor"`             // DROP only, e.g. "HEAD"
}

// ActionError tells one client why its action was refused.
type ActionError struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Error   string `json:"error"`
}

// Client is one WebSocket connection.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	perSecond := hub.opts.MessagesPerSecond
	return &Client{
		id:      events.NewID(),
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, hub.opts.ClientSendBuffer),
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// ID identifies the client in logs.
func (c *Client) ID() string {
	return c.id
}

// Register adds the client to the hub.
func (c *Client) Register() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		close(c.send)
	}
}

// ReadPump pumps actions from the websocket connection to the ticker.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.observer.RecordWSError()
				c.hub.logger.Warn("WebSocket read error from " + c.id + ": " + err.Error())
			}
			break
		}
		c.hub.observer.RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.observer.RecordWSError()
			c.hub.logger.Error("Failed to parse PlayerAction from WebSocket. err: " + err.Error())
			c.reject("", "malformed action")
			continue
		}

		c.handlePlayerAction(action)
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	if !c.limiter.Allow() {
		c.hub.logger.Warn("Rate limit exceeded for client " + c.id)
		c.reject(action.Type, "rate limit exceeded")
		return
	}

	var cmd engine.Command
	switch action.Type {
	case MessageReady:
		cmd = engine.ReadyCommand{Ready: true}
	case MessageUnready:
		cmd = engine.ReadyCommand{Ready: false}
	case MessageDrop:
		cmd = engine.DropCommand{PieceID: action.PieceID, Anchor: action.Anchor}
	case MessagePlayAgain:
		cmd = engine.ResetCommand{}
	default:
		c.hub.logger.Warn("Unknown PlayerAction type: " + action.Type)
		c.reject(action.Type, "unknown action")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.hub.opts.CommandTimeout)
	defer cancel()
	if err := c.hub.ticker.SubmitWait(ctx, cmd); err != nil {
		c.reject(action.Type, err.Error())
		return
	}
	c.hub.logger.Event("PLAYER_"+action.Type, c.id, "Accepted "+cmd.Name())
}

// reject queues an error frame for this client only. A full send buffer drops it.
func (c *Client) reject(command, reason string) {
	frame, err := json.Marshal(ActionError{Type: MessageError, Command: command, Error: reason})
	if err != nil {
		return
	}
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame; clients decode each frame as a single JSON value.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.observer.RecordWSError()
				return
			}
			c.hub.observer.RecordWSMessage(false)
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
