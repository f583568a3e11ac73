package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabboard-backend/internal/model"
	"collabboard-backend/internal/protocol"
)

func fv(v float64) *float64 { return &v }

func TestMeEventSetsIdentity(t *testing.T) {
	c := New("ws://test")
	c.apply(&protocol.Event{Type: protocol.EvtMe, ClientID: "u-1", Username: "alice"})
	assert.Equal(t, "u-1", c.ClientID())
}

func TestDrawStrokeIsOptimisticUntilConfirmed(t *testing.T) {
	c := New("ws://test")

	id := c.DrawStroke([]model.Point{{X: 1, Y: 2}}, "#fff", "")
	assert.Equal(t, 1, c.PendingStrokes())
	require.Len(t, c.State().Strokes, 1)

	// Server confirmation swaps in the copy carrying the assigned seq.
	confirmed := model.Stroke{StrokeID: id, Points: []model.Point{{X: 1, Y: 2}}, Color: "#fff", Seq: 7}
	c.apply(&protocol.Event{Type: protocol.EvtStrokeAdded, Stroke: &confirmed})

	assert.Zero(t, c.PendingStrokes())
	strokes := c.State().Strokes
	require.Len(t, strokes, 1)
	assert.Equal(t, int64(7), strokes[0].Seq)
}

func TestForeignStrokeAppended(t *testing.T) {
	c := New("ws://test")
	stroke := model.Stroke{StrokeID: "s-other", Points: []model.Point{{X: 0, Y: 0}}, Seq: 3}
	c.apply(&protocol.Event{Type: protocol.EvtStrokeAdded, Stroke: &stroke})

	require.Len(t, c.State().Strokes, 1)
	assert.Equal(t, "s-other", c.State().Strokes[0].StrokeID)
}

func TestMoveEchoSuppressedExactlyOnce(t *testing.T) {
	c := New("ws://test")
	stroke := model.Stroke{StrokeID: "s1", Points: []model.Point{{X: 10, Y: 10}}}
	c.apply(&protocol.Event{Type: protocol.EvtStrokeAdded, Stroke: &stroke})

	c.MoveStroke("s1", 5, 0)
	assert.Equal(t, 15.0, c.State().Strokes[0].Points[0].X)

	// The broadcast echo of our own move must not double-apply.
	c.apply(&protocol.Event{Type: protocol.EvtStrokeMoved, StrokeID: "s1", DX: fv(5), DY: fv(0)})
	assert.Equal(t, 15.0, c.State().Strokes[0].Points[0].X)

	// A genuine remote move still lands.
	c.apply(&protocol.Event{Type: protocol.EvtStrokeMoved, StrokeID: "s1", DX: fv(5), DY: fv(0)})
	assert.Equal(t, 20.0, c.State().Strokes[0].Points[0].X)
}

func TestStrokesRemovedClearsBookkeeping(t *testing.T) {
	c := New("ws://test")
	id := c.DrawStroke([]model.Point{{X: 1, Y: 1}}, "", "")
	c.MoveStroke(id, 1, 1)

	c.apply(&protocol.Event{Type: protocol.EvtStrokesRemoved, StrokeIDs: []string{id}})

	assert.Zero(t, c.PendingStrokes())
	assert.Empty(t, c.State().Strokes)

	c.mu.Lock()
	_, pending := c.selfMoves[id]
	c.mu.Unlock()
	assert.False(t, pending)
}

func TestSnapshotAbandonsPendingStrokes(t *testing.T) {
	c := New("ws://test")

	// Two strokes sent before the connection dropped: the server
	// confirmed one in time, the other was lost in flight.
	c.mu.Lock()
	c.state.Strokes = append(c.state.Strokes,
		model.Stroke{StrokeID: "s-confirmed", Points: []model.Point{{X: 1, Y: 1}}},
		model.Stroke{StrokeID: "s-lost", Points: []model.Point{{X: 2, Y: 2}}},
	)
	c.pending["s-confirmed"] = c.state.Strokes[0]
	c.pending["s-lost"] = c.state.Strokes[1]
	c.selfMoves["s-confirmed"] = 1
	c.mu.Unlock()

	c.apply(&protocol.Event{
		Type: protocol.EvtState,
		Strokes: []model.Stroke{
			{StrokeID: "s-remote", Points: []model.Point{{X: 9, Y: 9}}, Seq: 0},
			{StrokeID: "s-confirmed", Points: []model.Point{{X: 1, Y: 1}}, Seq: 1},
		},
		Stickies: []model.Sticky{{ID: "n-remote", X: 0, Y: 0}},
	})

	// Every pending entry is abandoned: the confirmed stroke lives on in
	// the snapshot, the lost one is gone rather than resent.
	assert.Zero(t, c.PendingStrokes())
	state := c.State()
	require.Len(t, state.Strokes, 2)
	ids := make(map[string]bool)
	for _, st := range state.Strokes {
		ids[st.StrokeID] = true
	}
	assert.True(t, ids["s-remote"])
	assert.True(t, ids["s-confirmed"])
	assert.False(t, ids["s-lost"])
	require.Len(t, state.Stickies, 1)

	c.mu.Lock()
	synced := c.synced
	moves := len(c.selfMoves)
	c.mu.Unlock()
	assert.True(t, synced)
	assert.Zero(t, moves)
}

func TestDrawWhileDisconnectedSentExactlyOnce(t *testing.T) {
	c := New("ws://test")

	// Drawing offline queues the ADD_STROKE for the post-resync flush.
	id := c.DrawStroke([]model.Point{{X: 1, Y: 2}}, "", "")
	require.Equal(t, 1, c.PendingStrokes())
	c.mu.Lock()
	require.Len(t, c.queue, 1)
	c.mu.Unlock()

	// Reconnect snapshot that does not contain the stroke yet.
	c.apply(&protocol.Event{Type: protocol.EvtState})

	// Exactly one ADD_STROKE survives for the stroke id — the queued
	// command. The abandoned pending entry must not add a second.
	c.mu.Lock()
	sends := 0
	for _, cmd := range c.queue {
		if cmd.Type == protocol.CmdAddStroke && cmd.StrokeID == id {
			sends++
		}
	}
	c.mu.Unlock()
	assert.Equal(t, 1, sends)
	assert.Zero(t, c.PendingStrokes())
}

func TestSnapshotWithoutConnectionKeepsQueue(t *testing.T) {
	c := New("ws://test")
	c.AddSticky(3, 3, "offline")

	c.apply(&protocol.Event{Type: protocol.EvtState})

	// No connection to flush into: the commands must survive for the
	// next snapshot instead of being dropped.
	c.mu.Lock()
	queued := len(c.queue)
	c.mu.Unlock()
	assert.Equal(t, 1, queued)
}

func TestCursorTracking(t *testing.T) {
	c := New("ws://test")
	c.apply(&protocol.Event{Type: protocol.EvtMe, ClientID: "u-me"})

	c.apply(&protocol.Event{Type: protocol.EvtCursorMove, ClientID: "u-other", X: fv(4), Y: fv(5)})
	// Our own echo carries nothing new.
	c.apply(&protocol.Event{Type: protocol.EvtCursorMove, ClientID: "u-me", X: fv(1), Y: fv(1)})

	cursors := c.Cursors()
	require.Len(t, cursors, 1)
	assert.Equal(t, "u-other", cursors[0].ClientID)
	assert.Equal(t, 4.0, cursors[0].X)

	c.apply(&protocol.Event{Type: protocol.EvtCursorLeft, ClientID: "u-other"})
	assert.Empty(t, c.Cursors())
}

func TestRosterAndSeqEvents(t *testing.T) {
	c := New("ws://test")

	c.apply(&protocol.Event{Type: protocol.EvtUsers, Users: []model.RosterEntry{
		{ClientID: "u-1", Username: "alice"},
		{ClientID: "u-2", Username: "bob"},
	}})
	assert.Len(t, c.Users(), 2)

	next := int64(12)
	c.apply(&protocol.Event{Type: protocol.EvtSeq, NextSeq: &next})
	assert.Equal(t, int64(12), c.State().NextSeq)
}

func TestDeltaEventsMutateLocalState(t *testing.T) {
	c := New("ws://test")

	sticky := model.Sticky{ID: "n1", X: 0, Y: 0, Width: 160, Height: 100, Text: "a", Color: "#fff"}
	c.apply(&protocol.Event{Type: protocol.EvtStickyAdded, Sticky: &sticky})

	text := "b"
	c.apply(&protocol.Event{Type: protocol.EvtStickyUpdated, ID: "n1", Text: &text})
	assert.Equal(t, "b", c.State().Stickies[0].Text)

	c.apply(&protocol.Event{Type: protocol.EvtStickyMoved, ID: "n1", X: fv(8), Y: fv(9)})
	assert.Equal(t, 8.0, c.State().Stickies[0].X)

	c.apply(&protocol.Event{Type: protocol.EvtStickyRemoved, ID: "n1"})
	assert.Empty(t, c.State().Stickies)
}
