package handler

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"collabboard-backend/internal/board"
	"collabboard-backend/internal/model"
	"collabboard-backend/internal/protocol"
)

// boardWire is the connection surface the hub writes to. Satisfied by
// *websocket.Conn; tests substitute a recording sink.
type boardWire interface {
	WriteMessage(messageType int, data []byte) error
}

// BoardClient is one attached connection: server-assigned ephemeral id,
// display name, and a write-serialized wire.
type BoardClient struct {
	ID       string
	Username string

	conn    boardWire
	writeMu sync.Mutex
	room    *boardRoom
}

func (c *BoardClient) send(data []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[Hub] Write to %s failed: %v", c.ID, err)
	}
}

func (c *BoardClient) sendEvent(evt protocol.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[Hub] Marshal failed: %v", err)
		return
	}
	c.send(data)
}

// boardRoom groups every live connection attached to one board, plus the
// ephemeral cursor map. The board itself owns the authoritative state.
type boardRoom struct {
	id    string
	board *board.Board

	mu      sync.RWMutex
	clients map[*BoardClient]struct{}
	cursors map[string]model.Cursor
}

// broadcast serializes the event once and writes it verbatim to every
// connection on the board, sender included.
func (r *boardRoom) broadcast(evt protocol.Event) {
	r.broadcastExcept(nil, evt)
}

// broadcastExcept skips one connection; used only for presence "left"
// events, which are moot for the leaving client.
func (r *boardRoom) broadcastExcept(skip *BoardClient, evt protocol.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[Hub] Marshal failed: %v", err)
		return
	}
	r.mu.RLock()
	clients := make([]*BoardClient, 0, len(r.clients))
	for c := range r.clients {
		if c != skip {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range clients {
		c.send(data)
	}
}

func (r *boardRoom) roster() []model.RosterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]model.RosterEntry, 0, len(r.clients))
	for c := range r.clients {
		users = append(users, model.RosterEntry{ClientID: c.ID, Username: c.Username})
	}
	return users
}

func (r *boardRoom) cursorList() []model.Cursor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cursors := make([]model.Cursor, 0, len(r.cursors))
	for _, cur := range r.cursors {
		cursors = append(cursors, cur)
	}
	return cursors
}

// BoardHub owns every board room and routes commands into the per-board
// serialized mutation path.
type BoardHub struct {
	registry *board.Registry

	mu    sync.RWMutex
	rooms map[string]*boardRoom
}

// NewBoardHub creates the hub and hooks the registry's load-completion
// callback so late repository loads resync already-attached clients.
func NewBoardHub(registry *board.Registry) *BoardHub {
	h := &BoardHub{
		registry: registry,
		rooms:    make(map[string]*boardRoom),
	}
	registry.OnLoaded(h.resyncBoard)
	return h
}

func (h *BoardHub) getOrCreateRoom(boardID string) *boardRoom {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[boardID]; ok {
		return r
	}
	r := &boardRoom{
		id:      boardID,
		board:   h.registry.Get(boardID),
		clients: make(map[*BoardClient]struct{}),
		cursors: make(map[string]model.Cursor),
	}
	h.rooms[boardID] = r
	log.Printf("[Hub] Created room for board %s", boardID)
	return r
}

func (h *BoardHub) getRoom(boardID string) *boardRoom {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[boardID]
}

// Attach registers a connection on a board and unicasts the resync
// contract in order: ME, STATE, SEQ, CURSORS. The snapshot send and the
// registration happen inside the board's critical section so no mutation
// broadcast can interleave between them; a roster update follows.
func (h *BoardHub) Attach(boardID, username string, conn boardWire) *BoardClient {
	r := h.getOrCreateRoom(boardID)
	client := &BoardClient{
		ID:       "u-" + uuid.NewString()[:8],
		Username: username,
		conn:     conn,
		room:     r,
	}

	r.board.View(func(s *board.State) {
		client.sendEvent(protocol.Event{Type: protocol.EvtMe, ClientID: client.ID, Username: username})
		client.sendEvent(snapshotEvent(s))
		nextSeq := s.NextSeq
		client.sendEvent(protocol.Event{Type: protocol.EvtSeq, NextSeq: &nextSeq})
		client.sendEvent(protocol.Event{Type: protocol.EvtCursors, Cursors: r.cursorList()})

		r.mu.Lock()
		r.clients[client] = struct{}{}
		r.mu.Unlock()
	})

	r.broadcast(protocol.Event{Type: protocol.EvtUsers, Users: r.roster()})
	log.Printf("[Hub] %s (%s) attached to board %s", client.ID, username, boardID)
	return client
}

// Detach removes a connection, clears its cursor, and notifies the rest
// of the board. The leaving connection is skipped, not the others.
func (h *BoardHub) Detach(client *BoardClient) {
	r := client.room
	if r == nil {
		return
	}
	r.mu.Lock()
	if _, ok := r.clients[client]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.clients, client)
	delete(r.cursors, client.ID)
	r.mu.Unlock()

	r.broadcastExcept(client, protocol.Event{Type: protocol.EvtCursorLeft, ClientID: client.ID})
	r.broadcast(protocol.Event{Type: protocol.EvtUsers, Users: r.roster()})
	log.Printf("[Hub] %s detached from board %s", client.ID, r.id)
}

// resyncBoard pushes a fresh STATE and SEQ to every attached connection
// after a background repository load resolves. Clients that connected
// while the board looked empty pick up persisted content without
// reconnecting.
func (h *BoardHub) resyncBoard(boardID string) {
	r := h.getRoom(boardID)
	if r == nil {
		return
	}
	r.board.View(func(s *board.State) {
		r.broadcast(snapshotEvent(s))
		nextSeq := s.NextSeq
		r.broadcast(protocol.Event{Type: protocol.EvtSeq, NextSeq: &nextSeq})
	})
	log.Printf("[Hub] Board %s resynced after load", boardID)
}

func snapshotEvent(s *board.State) protocol.Event {
	return protocol.Event{
		Type:         protocol.EvtState,
		Strokes:      s.Strokes,
		Stickies:     s.Stickies,
		TextElements: s.TextElements,
		Connectors:   s.Connectors,
		Frames:       s.Frames,
	}
}

// Snapshot returns a deep copy of a board's current state, creating the
// board on first touch. Used by the HTTP layer and the agent.
func (h *BoardHub) Snapshot(boardID string) *board.State {
	return h.getOrCreateRoom(boardID).board.Snapshot()
}
