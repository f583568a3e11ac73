package client

import (
	"collabboard-backend/internal/board"
	"collabboard-backend/internal/model"
	"collabboard-backend/internal/protocol"
)

// apply folds one server event into the local state. Snapshot events
// rebuild everything and trigger the post-reconnect flush; deltas mirror
// the server's mutations exactly.
func (c *Client) apply(evt *protocol.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch evt.Type {
	case protocol.EvtMe:
		c.clientID = evt.ClientID
		c.username = evt.Username

	case protocol.EvtState:
		c.installSnapshot(evt)

	case protocol.EvtSeq:
		if evt.NextSeq != nil {
			c.state.NextSeq = *evt.NextSeq
		}

	case protocol.EvtCursors:
		c.cursors = make(map[string]model.Cursor, len(evt.Cursors))
		for _, cur := range evt.Cursors {
			c.cursors[cur.ClientID] = cur
		}

	case protocol.EvtUsers:
		c.users = evt.Users

	case protocol.EvtCursorMove:
		// Own echo carries nothing new.
		if evt.ClientID != c.clientID && evt.X != nil && evt.Y != nil {
			c.cursors[evt.ClientID] = model.Cursor{ClientID: evt.ClientID, X: *evt.X, Y: *evt.Y}
		}

	case protocol.EvtCursorLeft:
		delete(c.cursors, evt.ClientID)

	case protocol.EvtStrokeAdded:
		if evt.Stroke == nil {
			return
		}
		if _, ours := c.pending[evt.Stroke.StrokeID]; ours {
			// Confirmation of an optimistic stroke: swap in the
			// server copy so the assigned seq lands locally.
			delete(c.pending, evt.Stroke.StrokeID)
			for i := range c.state.Strokes {
				if c.state.Strokes[i].StrokeID == evt.Stroke.StrokeID {
					c.state.Strokes[i] = *evt.Stroke
					return
				}
			}
		}
		c.state.Strokes = append(c.state.Strokes, *evt.Stroke)

	case protocol.EvtStrokesRemoved:
		c.state.DeleteStrokes(evt.StrokeIDs)
		for _, id := range evt.StrokeIDs {
			delete(c.pending, id)
			delete(c.selfMoves, id)
		}

	case protocol.EvtStrokeMoved:
		if evt.DX == nil || evt.DY == nil {
			return
		}
		if c.selfMoves[evt.StrokeID] > 0 {
			// Our own move, already applied optimistically.
			c.selfMoves[evt.StrokeID]--
			if c.selfMoves[evt.StrokeID] == 0 {
				delete(c.selfMoves, evt.StrokeID)
			}
			return
		}
		c.state.MoveStroke(evt.StrokeID, *evt.DX, *evt.DY)

	case protocol.EvtStrokeColorChanged:
		if evt.Color != nil {
			c.state.SetStrokeColor(evt.StrokeID, *evt.Color)
		}

	case protocol.EvtStrokeRotationChanged:
		if evt.Rotation != nil {
			c.state.SetStrokeRotation(evt.StrokeID, *evt.Rotation)
		}

	case protocol.EvtStrokePointsUpdated:
		c.state.UpdateStrokePoints(evt.StrokeID, evt.Points)

	case protocol.EvtStickyAdded:
		if evt.Sticky != nil {
			c.state.AddSticky(*evt.Sticky)
		}

	case protocol.EvtStickyUpdated:
		c.state.UpdateSticky(evt.ID, model.StickyPatch{
			X: evt.X, Y: evt.Y, Width: evt.Width, Height: evt.Height,
			Text: evt.Text, Color: evt.Color, Rotation: evt.Rotation,
		})

	case protocol.EvtStickyMoved:
		if evt.X != nil && evt.Y != nil {
			c.state.MoveSticky(evt.ID, *evt.X, *evt.Y)
		}

	case protocol.EvtStickyRemoved:
		c.state.DeleteSticky(evt.ID)

	case protocol.EvtTextAdded:
		if evt.TextElement != nil {
			c.state.AddTextElement(*evt.TextElement)
		}

	case protocol.EvtTextUpdated:
		c.state.UpdateTextElement(evt.ID, model.TextPatch{
			X: evt.X, Y: evt.Y, Text: evt.Text, Color: evt.Color,
			Width: evt.Width, Height: evt.Height, Rotation: evt.Rotation,
			CenterLabel: evt.CenterLabel,
		})

	case protocol.EvtTextMoved:
		if evt.X != nil && evt.Y != nil {
			c.state.MoveTextElement(evt.ID, *evt.X, *evt.Y)
		}

	case protocol.EvtTextRemoved:
		c.state.DeleteTextElement(evt.ID)

	case protocol.EvtFrameAdded:
		if evt.Frame != nil {
			c.state.AddFrame(*evt.Frame)
		}

	case protocol.EvtFrameUpdated:
		c.state.UpdateFrame(evt.ID, model.FramePatch{
			X: evt.X, Y: evt.Y, Width: evt.Width, Height: evt.Height,
			Title: evt.Title, Rotation: evt.Rotation,
		})

	case protocol.EvtFrameRemoved:
		c.state.DeleteFrame(evt.ID)

	case protocol.EvtConnectorAdded:
		if evt.Connector != nil {
			c.state.AddConnector(*evt.Connector)
		}

	case protocol.EvtConnectorUpdated:
		c.state.UpdateConnector(evt.ID, model.ConnectorPatch{
			From: evt.From, To: evt.To, Color: evt.Color,
		})

	case protocol.EvtConnectorRemoved:
		c.state.DeleteConnector(evt.ID)
	}
}

// installSnapshot replaces the local state with the server's and flushes
// the offline queue. Pending optimistic strokes are abandoned: ones the
// server confirmed are already in the snapshot, and ones it never saw are
// either sitting in the offline queue (drawn while disconnected) or were
// lost with the connection. Resending from pending here would duplicate
// every queued ADD_STROKE. Runs with the mutex held.
func (c *Client) installSnapshot(evt *protocol.Event) {
	s := board.NewState()
	s.NextSeq = c.state.NextSeq
	s.Strokes = append(s.Strokes, evt.Strokes...)
	s.Stickies = append(s.Stickies, evt.Stickies...)
	s.TextElements = append(s.TextElements, evt.TextElements...)
	s.Connectors = append(s.Connectors, evt.Connectors...)
	s.Frames = append(s.Frames, evt.Frames...)
	c.state = s

	c.pending = make(map[string]model.Stroke)
	// Stale echo suppression would swallow genuine remote moves after a
	// resync; the snapshot already reflects every settled position.
	c.selfMoves = make(map[string]int)
	c.synced = true

	conn := c.conn
	if conn == nil {
		// Keep the queue for the next snapshot.
		return
	}
	queued := c.queue
	c.queue = nil

	// Writes happen outside the read loop's event ordering concerns: the
	// server serializes whatever arrives.
	go func() {
		for _, cmd := range queued {
			c.write(conn, cmd)
		}
	}()
}
