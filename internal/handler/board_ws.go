package handler

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"collabboard-backend/internal/protocol"
)

// EphemeralBoardID is the single board everyone shares when no
// repository is configured.
const EphemeralBoardID = "default"

// MembershipChecker reports whether a user may attach to a board. A nil
// checker means ephemeral single-board mode: every authenticated
// connection lands on EphemeralBoardID.
type MembershipChecker func(boardID string, userID int64) bool

// BoardWSHandler owns the websocket lifecycle for board connections:
// the attach gate with distinct refusal codes, the read loop, and the
// ping-based liveness check.
type BoardWSHandler struct {
	hub     *BoardHub
	members MembershipChecker

	pingInterval time.Duration
	maxMissed    int
}

// NewBoardWSHandler creates the ws handler.
func NewBoardWSHandler(hub *BoardHub, members MembershipChecker, pingInterval time.Duration, maxMissed int) *BoardWSHandler {
	return &BoardWSHandler{
		hub:          hub,
		members:      members,
		pingInterval: pingInterval,
		maxMissed:    maxMissed,
	}
}

// admit decides which board a connection may join. A non-zero close code
// means refusal; the caller delivers it as a websocket close frame.
func (h *BoardWSHandler) admit(authed bool, userID int64, boardID string) (string, int, string) {
	if !authed {
		return "", protocol.CloseUnauthorized, "not authenticated"
	}
	if h.members == nil {
		return EphemeralBoardID, 0, ""
	}
	if boardID == "" {
		return "", protocol.CloseNoBoard, "no board specified"
	}
	if !h.members(boardID, userID) {
		return "", protocol.CloseNotMember, "not a member of this board"
	}
	return boardID, 0, ""
}

// HandleWebSocket runs one connection from accept to close. Identity and
// the requested board id arrive via Locals set by the upgrade middleware;
// refusals are delivered as websocket close codes so the client can tell
// "pick a board" from "log in again" from plain failure.
func (h *BoardWSHandler) HandleWebSocket(c *websocket.Conn) {
	defer c.Close()

	username, _ := c.Locals("username").(string)
	userID, authed := c.Locals("userID").(int64)
	requested, _ := c.Locals("boardId").(string)

	boardID, closeCode, reason := h.admit(authed, userID, requested)
	if closeCode != 0 {
		refuse(c, closeCode, reason)
		return
	}

	client := h.hub.Attach(boardID, username, c)
	defer h.hub.Detach(client)

	// Liveness: ping on an interval, count misses, reset on any pong or
	// inbound frame. Intermediate infrastructure kills idle connections;
	// this kills dead ones.
	var aliveMu sync.Mutex
	missed := 0
	touch := func() {
		aliveMu.Lock()
		missed = 0
		aliveMu.Unlock()
	}
	c.SetPongHandler(func(string) error {
		touch()
		return nil
	})

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				aliveMu.Lock()
				missed++
				dead := missed > h.maxMissed
				aliveMu.Unlock()
				if dead {
					log.Printf("[WS] %s missed %d pings, terminating", client.ID, h.maxMissed)
					c.Close()
					return
				}
				deadline := time.Now().Add(h.pingInterval / 2)
				if err := c.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					c.Close()
					return
				}
			}
		}
	}()

	for {
		msgType, raw, err := c.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		touch()
		h.hub.Dispatch(client, raw)
	}
}

func refuse(c *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(code, reason)
	if err := c.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		log.Printf("[WS] Refusal write failed: %v", err)
	}
}
