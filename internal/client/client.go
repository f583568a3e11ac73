// Package client is a Go connector for board websockets. It keeps a
// local materialized copy of the board, applies its own strokes
// optimistically before the server confirms them, and survives
// disconnects by queueing commands and resyncing from the next snapshot.
package client

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"collabboard-backend/internal/board"
	"collabboard-backend/internal/model"
	"collabboard-backend/internal/protocol"
)

const (
	reconnectBase = 500 * time.Millisecond
	reconnectMax  = 30 * time.Second
	writeTimeout  = 5 * time.Second
)

// EventFunc observes every decoded server event after it has been
// applied to the local state.
type EventFunc func(evt *protocol.Event)

// Client is one connection to a board.
type Client struct {
	url      string
	dialer   *websocket.Dialer
	onEvent  EventFunc
	clientID string
	username string

	// writeMu serializes frame writes; gorilla permits one writer.
	writeMu sync.Mutex

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	state     *board.State
	synced    bool
	cursors   map[string]model.Cursor
	users     []model.RosterEntry

	// pending holds optimistic strokes not yet confirmed by the server,
	// keyed by client-generated stroke id.
	pending map[string]model.Stroke
	// selfMoves counts unacked MOVE_STROKE echoes per stroke id so the
	// already-applied local move is not applied twice.
	selfMoves map[string]int
	// queue holds commands issued while disconnected; flushed after the
	// post-reconnect snapshot arrives.
	queue []protocol.Command

	done chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithEventHandler registers an observer for applied events.
func WithEventHandler(fn EventFunc) Option {
	return func(c *Client) { c.onEvent = fn }
}

// New creates a client for a board websocket URL
// (ws://host/ws/board/<id>?token=...).
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:       url,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		state:     board.NewState(),
		cursors:   make(map[string]model.Cursor),
		pending:   make(map[string]model.Stroke),
		selfMoves: make(map[string]int),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the board and starts the read loop. The loop reconnects
// with exponential backoff until Close is called.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Close tears the connection down and stops reconnecting.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// ClientID returns the server-assigned id, empty before the first ME.
func (c *Client) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

// Connected reports whether the socket is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// State returns a deep copy of the local board state, with pending
// optimistic strokes included.
func (c *Client) State() *board.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Cursors returns the last known position of every other cursor.
func (c *Client) Cursors() []model.Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	cursors := make([]model.Cursor, 0, len(c.cursors))
	for _, cur := range c.cursors {
		cursors = append(cursors, cur)
	}
	return cursors
}

// Users returns the current roster.
func (c *Client) Users() []model.RosterEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.RosterEntry{}, c.users...)
}

// PendingStrokes reports how many optimistic strokes await confirmation.
func (c *Client) PendingStrokes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// DrawStroke applies a stroke locally and sends it, returning the
// client-generated stroke id used for reconciliation.
func (c *Client) DrawStroke(points []model.Point, color string, shape model.ShapeTag) string {
	strokeID := "s-" + uuid.NewString()[:8]
	if color == "" {
		color = model.DefaultStrokeColor
	}
	stroke := model.Stroke{StrokeID: strokeID, Points: points, Color: color, Shape: shape}

	c.mu.Lock()
	c.pending[strokeID] = stroke
	c.state.Strokes = append(c.state.Strokes, stroke)
	c.mu.Unlock()

	colorArg := color
	c.Send(protocol.Command{
		Type:     protocol.CmdAddStroke,
		StrokeID: strokeID,
		Points:   points,
		Shape:    shape,
		Color:    &colorArg,
	})
	return strokeID
}

// MoveStroke applies the translation locally, arms echo suppression, and
// sends the move.
func (c *Client) MoveStroke(strokeID string, dx, dy float64) {
	c.mu.Lock()
	if c.state.MoveStroke(strokeID, dx, dy) {
		c.selfMoves[strokeID]++
	}
	c.mu.Unlock()

	c.Send(protocol.Command{Type: protocol.CmdMoveStroke, StrokeID: strokeID, DX: dx, DY: dy})
}

// DeleteStrokes removes strokes locally and sends the batch delete.
func (c *Client) DeleteStrokes(strokeIDs ...string) {
	c.mu.Lock()
	c.state.DeleteStrokes(strokeIDs)
	for _, id := range strokeIDs {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	c.Send(protocol.Command{Type: protocol.CmdDeleteStrokes, StrokeIDs: strokeIDs})
}

// AddSticky creates a sticky optimistically and returns its id.
func (c *Client) AddSticky(x, y float64, text string) string {
	id := "n-" + uuid.NewString()[:8]

	c.mu.Lock()
	c.state.AddSticky(model.Sticky{ID: id, X: x, Y: y, Text: text})
	c.mu.Unlock()

	textArg := text
	c.Send(protocol.Command{Type: protocol.CmdAddSticky, ID: id, X: &x, Y: &y, Text: &textArg})
	return id
}

// MoveCursor publishes the local cursor position.
func (c *Client) MoveCursor(x, y float64) {
	c.Send(protocol.Command{Type: protocol.CmdCursorMove, X: &x, Y: &y})
}

// Send writes a command, queueing it while disconnected. Queued commands
// flush after the next snapshot so they never race the resync.
func (c *Client) Send(cmd protocol.Command) {
	c.mu.Lock()
	if !c.connected || !c.synced {
		c.queue = append(c.queue, cmd)
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.mu.Unlock()

	c.write(conn, cmd)
}

func (c *Client) write(conn *websocket.Conn, cmd protocol.Command) {
	data, err := json.Marshal(cmd)
	if err != nil {
		log.Printf("[Client] Marshal failed: %v", err)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[Client] Write failed: %v", err)
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		evt := protocol.DecodeEvent(raw)
		if evt == nil {
			continue
		}
		c.apply(evt)
		if c.onEvent != nil {
			c.onEvent(evt)
		}
	}

	c.mu.Lock()
	c.connected = false
	c.synced = false
	closed := c.closed
	c.mu.Unlock()

	if !closed {
		go c.reconnect()
	}
}

// reconnect dials with exponential backoff until it succeeds or the
// client is closed.
func (c *Client) reconnect() {
	backoff := reconnectBase
	for {
		select {
		case <-c.done:
			return
		case <-time.After(backoff + time.Duration(rand.Int63n(int64(backoff/2)+1))):
		}

		conn, _, err := c.dialer.Dial(c.url, nil)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.connected = true
			c.mu.Unlock()
			log.Printf("[Client] Reconnected to %s", c.url)
			go c.readLoop(conn)
			return
		}

		log.Printf("[Client] Reconnect failed, retrying in %s: %v", backoff, err)
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}
