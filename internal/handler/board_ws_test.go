package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"collabboard-backend/internal/board"
	"collabboard-backend/internal/protocol"
)

func newTestWSHandler(members MembershipChecker) *BoardWSHandler {
	hub := NewBoardHub(board.NewRegistry(nil))
	return NewBoardWSHandler(hub, members, time.Second, 2)
}

func TestAdmitRefusesUnauthenticated(t *testing.T) {
	h := newTestWSHandler(func(string, int64) bool { return true })

	_, code, _ := h.admit(false, 0, "b-1")
	assert.Equal(t, protocol.CloseUnauthorized, code)
}

func TestAdmitRefusesMissingBoard(t *testing.T) {
	h := newTestWSHandler(func(string, int64) bool { return true })

	// A connection with no board id in the path must still reach the
	// gate so it can be told which code to react to.
	_, code, _ := h.admit(true, 7, "")
	assert.Equal(t, protocol.CloseNoBoard, code)
}

func TestAdmitRefusesNonMember(t *testing.T) {
	h := newTestWSHandler(func(boardID string, userID int64) bool {
		return boardID == "b-1" && userID == 7
	})

	_, code, _ := h.admit(true, 8, "b-1")
	assert.Equal(t, protocol.CloseNotMember, code)

	_, code, _ = h.admit(true, 7, "b-2")
	assert.Equal(t, protocol.CloseNotMember, code)
}

func TestAdmitAcceptsMember(t *testing.T) {
	h := newTestWSHandler(func(boardID string, userID int64) bool {
		return boardID == "b-1" && userID == 7
	})

	boardID, code, reason := h.admit(true, 7, "b-1")
	assert.Zero(t, code)
	assert.Empty(t, reason)
	assert.Equal(t, "b-1", boardID)
}

func TestAdmitEphemeralModeIgnoresBoardID(t *testing.T) {
	h := newTestWSHandler(nil)

	// Without a membership checker there is exactly one shared board;
	// whatever the client asked for, it lands there.
	boardID, code, _ := h.admit(true, 0, "anything")
	assert.Zero(t, code)
	assert.Equal(t, EphemeralBoardID, boardID)

	boardID, code, _ = h.admit(true, 0, "")
	assert.Zero(t, code)
	assert.Equal(t, EphemeralBoardID, boardID)

	// Guests are still gated on authentication.
	_, code, _ = h.admit(false, 0, "")
	assert.Equal(t, protocol.CloseUnauthorized, code)
}
