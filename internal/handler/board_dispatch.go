package handler

import (
	"collabboard-backend/internal/board"
	"collabboard-backend/internal/model"
	"collabboard-backend/internal/protocol"
)

// Dispatch routes one inbound frame from an attached connection.
// Malformed frames are dropped silently: a misbehaving client must not
// be able to desync or crash anyone else.
func (h *BoardHub) Dispatch(client *BoardClient, raw []byte) {
	cmd := protocol.DecodeCommand(raw)
	if cmd == nil {
		return
	}

	switch cmd.Type {
	case protocol.CmdPing:
		// Liveness only. Never broadcast; the connection loop already
		// counted the frame as activity.
		return
	case protocol.CmdCursorMove:
		h.handleCursorMove(client, cmd)
	case protocol.CmdCursorLeft:
		h.handleCursorLeft(client)
	default:
		h.applyMutation(client.room, cmd)
	}
}

// Apply feeds a command into a board's serialized mutation path without a
// connection, for server-side producers (the AI agent). The effects are
// indistinguishable from a client-sent command.
func (h *BoardHub) Apply(boardID string, cmd *protocol.Command) {
	if cmd == nil || cmd.Type == "" {
		return
	}
	h.applyMutation(h.getOrCreateRoom(boardID), cmd)
}

// applyMutation holds the board's lock across apply and broadcast so that
// the fanout order is exactly the apply order, for every connection.
func (h *BoardHub) applyMutation(r *boardRoom, cmd *protocol.Command) {
	r.board.Mutate(func(s *board.State) bool {
		switch cmd.Type {
		case protocol.CmdAddStroke:
			return handleAddStroke(r, s, cmd)
		case protocol.CmdDeleteStrokes:
			return handleDeleteStrokes(r, s, cmd)
		case protocol.CmdMoveStroke:
			return handleMoveStroke(r, s, cmd)
		case protocol.CmdSetStrokeColor:
			return handleSetStrokeColor(r, s, cmd)
		case protocol.CmdSetStrokeRotation:
			return handleSetStrokeRotation(r, s, cmd)
		case protocol.CmdUpdateStrokePoints:
			return handleUpdateStrokePoints(r, s, cmd)

		case protocol.CmdAddSticky:
			return handleAddSticky(r, s, cmd)
		case protocol.CmdUpdateSticky:
			return handleUpdateSticky(r, s, cmd)
		case protocol.CmdUpdateStickyPosition:
			return handleMoveSticky(r, s, cmd)
		case protocol.CmdDeleteSticky:
			return handleDeleteSticky(r, s, cmd)

		case protocol.CmdAddTextElement:
			return handleAddText(r, s, cmd)
		case protocol.CmdUpdateTextElement:
			return handleUpdateText(r, s, cmd)
		case protocol.CmdUpdateTextPosition:
			return handleMoveText(r, s, cmd)
		case protocol.CmdDeleteTextElement:
			return handleDeleteText(r, s, cmd)

		case protocol.CmdAddFrame:
			return handleAddFrame(r, s, cmd)
		case protocol.CmdUpdateFrame:
			return handleUpdateFrame(r, s, cmd)
		case protocol.CmdDeleteFrame:
			return handleDeleteFrame(r, s, cmd)

		case protocol.CmdAddConnector:
			return handleAddConnector(r, s, cmd)
		case protocol.CmdUpdateConnector:
			return handleUpdateConnector(r, s, cmd)
		case protocol.CmdDeleteConnector:
			return handleDeleteConnector(r, s, cmd)
		}
		// Unknown command types are dropped silently.
		return false
	})
}

func handleAddStroke(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.StrokeID == "" || cmd.Points == nil {
		return false
	}
	color := ""
	if cmd.Color != nil {
		color = *cmd.Color
	}
	stroke := s.AddStroke(cmd.StrokeID, cmd.Points, color, cmd.Shape)
	r.broadcast(protocol.Event{Type: protocol.EvtStrokeAdded, Stroke: &stroke})
	return true
}

func handleDeleteStrokes(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if len(cmd.StrokeIDs) == 0 {
		return false
	}
	removed, cascaded := s.DeleteStrokes(cmd.StrokeIDs)
	if len(removed) == 0 {
		return false
	}
	// Connector cleanup is announced before the primary removal so
	// clients processing in arrival order never render a dangling arrow.
	for _, c := range cascaded {
		r.broadcast(protocol.Event{Type: protocol.EvtConnectorRemoved, ID: c.ID})
	}
	r.broadcast(protocol.Event{Type: protocol.EvtStrokesRemoved, StrokeIDs: removed})
	return true
}

func handleMoveStroke(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.StrokeID == "" || !s.MoveStroke(cmd.StrokeID, cmd.DX, cmd.DY) {
		return false
	}
	// Rebroadcast the same translation delta, never absolute points: the
	// message stays small regardless of stroke complexity.
	dx, dy := cmd.DX, cmd.DY
	r.broadcast(protocol.Event{Type: protocol.EvtStrokeMoved, StrokeID: cmd.StrokeID, DX: &dx, DY: &dy})
	return true
}

func handleSetStrokeColor(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.StrokeID == "" || cmd.Color == nil || !s.SetStrokeColor(cmd.StrokeID, *cmd.Color) {
		return false
	}
	r.broadcast(protocol.Event{Type: protocol.EvtStrokeColorChanged, StrokeID: cmd.StrokeID, Color: cmd.Color})
	return true
}

func handleSetStrokeRotation(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.StrokeID == "" || cmd.Rotation == nil || !s.SetStrokeRotation(cmd.StrokeID, *cmd.Rotation) {
		return false
	}
	r.broadcast(protocol.Event{Type: protocol.EvtStrokeRotationChanged, StrokeID: cmd.StrokeID, Rotation: cmd.Rotation})
	return true
}

func handleUpdateStrokePoints(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.StrokeID == "" || !s.UpdateStrokePoints(cmd.StrokeID, cmd.Points) {
		return false
	}
	r.broadcast(protocol.Event{Type: protocol.EvtStrokePointsUpdated, StrokeID: cmd.StrokeID, Points: cmd.Points})
	return true
}

func handleAddSticky(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" || cmd.X == nil || cmd.Y == nil {
		return false
	}
	sticky := model.Sticky{ID: cmd.ID, X: *cmd.X, Y: *cmd.Y}
	if cmd.Width != nil {
		sticky.Width = *cmd.Width
	}
	if cmd.Height != nil {
		sticky.Height = *cmd.Height
	}
	if cmd.Text != nil {
		sticky.Text = *cmd.Text
	}
	if cmd.Color != nil {
		sticky.Color = *cmd.Color
	}
	if cmd.Rotation != nil {
		sticky.Rotation = *cmd.Rotation
	}
	full := s.AddSticky(sticky)
	r.broadcast(protocol.Event{Type: protocol.EvtStickyAdded, Sticky: &full})
	return true
}

func handleUpdateSticky(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" {
		return false
	}
	delta, changed := s.UpdateSticky(cmd.ID, cmd.StickyPatch())
	if !changed {
		return false
	}
	r.broadcast(protocol.StickyUpdated(cmd.ID, delta))
	return true
}

func handleMoveSticky(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" || cmd.X == nil || cmd.Y == nil || !s.MoveSticky(cmd.ID, *cmd.X, *cmd.Y) {
		return false
	}
	r.broadcast(protocol.Event{Type: protocol.EvtStickyMoved, ID: cmd.ID, X: cmd.X, Y: cmd.Y})
	return true
}

func handleDeleteSticky(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" {
		return false
	}
	cascaded, ok := s.DeleteSticky(cmd.ID)
	if !ok {
		return false
	}
	for _, c := range cascaded {
		r.broadcast(protocol.Event{Type: protocol.EvtConnectorRemoved, ID: c.ID})
	}
	r.broadcast(protocol.Event{Type: protocol.EvtStickyRemoved, ID: cmd.ID})
	return true
}

func handleAddText(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" || cmd.X == nil || cmd.Y == nil {
		return false
	}
	t := model.TextElement{ID: cmd.ID, X: *cmd.X, Y: *cmd.Y}
	if cmd.Text != nil {
		t.Text = *cmd.Text
	}
	if cmd.Color != nil {
		t.Color = *cmd.Color
	}
	if cmd.Width != nil {
		t.Width = *cmd.Width
	}
	if cmd.Height != nil {
		t.Height = *cmd.Height
	}
	if cmd.Rotation != nil {
		t.Rotation = *cmd.Rotation
	}
	if cmd.CenterLabel != nil {
		t.CenterLabel = *cmd.CenterLabel
	}
	full := s.AddTextElement(t)
	r.broadcast(protocol.Event{Type: protocol.EvtTextAdded, TextElement: &full})
	return true
}

func handleUpdateText(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" {
		return false
	}
	delta, changed := s.UpdateTextElement(cmd.ID, cmd.TextPatch())
	if !changed {
		return false
	}
	r.broadcast(protocol.TextUpdated(cmd.ID, delta))
	return true
}

func handleMoveText(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" || cmd.X == nil || cmd.Y == nil || !s.MoveTextElement(cmd.ID, *cmd.X, *cmd.Y) {
		return false
	}
	r.broadcast(protocol.Event{Type: protocol.EvtTextMoved, ID: cmd.ID, X: cmd.X, Y: cmd.Y})
	return true
}

func handleDeleteText(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" {
		return false
	}
	cascaded, ok := s.DeleteTextElement(cmd.ID)
	if !ok {
		return false
	}
	for _, c := range cascaded {
		r.broadcast(protocol.Event{Type: protocol.EvtConnectorRemoved, ID: c.ID})
	}
	r.broadcast(protocol.Event{Type: protocol.EvtTextRemoved, ID: cmd.ID})
	return true
}

func handleAddFrame(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" || cmd.X == nil || cmd.Y == nil {
		return false
	}
	f := model.Frame{ID: cmd.ID, X: *cmd.X, Y: *cmd.Y}
	if cmd.Width != nil {
		f.Width = *cmd.Width
	}
	if cmd.Height != nil {
		f.Height = *cmd.Height
	}
	if cmd.Title != nil {
		f.Title = *cmd.Title
	}
	if cmd.Rotation != nil {
		f.Rotation = *cmd.Rotation
	}
	full := s.AddFrame(f)
	r.broadcast(protocol.Event{Type: protocol.EvtFrameAdded, Frame: &full})
	return true
}

func handleUpdateFrame(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" {
		return false
	}
	delta, changed := s.UpdateFrame(cmd.ID, cmd.FramePatch())
	if !changed {
		return false
	}
	r.broadcast(protocol.FrameUpdated(cmd.ID, delta))
	return true
}

func handleDeleteFrame(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" || !s.DeleteFrame(cmd.ID) {
		return false
	}
	r.broadcast(protocol.Event{Type: protocol.EvtFrameRemoved, ID: cmd.ID})
	return true
}

func handleAddConnector(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" || cmd.From == nil || cmd.To == nil || !cmd.From.Valid() || !cmd.To.Valid() {
		return false
	}
	c := model.Connector{ID: cmd.ID, From: *cmd.From, To: *cmd.To}
	if cmd.Color != nil {
		c.Color = *cmd.Color
	}
	full, ok := s.AddConnector(c)
	if !ok {
		return false
	}
	r.broadcast(protocol.Event{Type: protocol.EvtConnectorAdded, Connector: &full})
	return true
}

func handleUpdateConnector(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" {
		return false
	}
	delta, changed := s.UpdateConnector(cmd.ID, cmd.ConnectorPatch())
	if !changed {
		return false
	}
	r.broadcast(protocol.ConnectorUpdated(cmd.ID, delta))
	return true
}

func handleDeleteConnector(r *boardRoom, s *board.State, cmd *protocol.Command) bool {
	if cmd.ID == "" || !s.DeleteConnector(cmd.ID) {
		return false
	}
	r.broadcast(protocol.Event{Type: protocol.EvtConnectorRemoved, ID: cmd.ID})
	return true
}

func (h *BoardHub) handleCursorMove(client *BoardClient, cmd *protocol.Command) {
	if client == nil || cmd.X == nil || cmd.Y == nil {
		return
	}
	r := client.room
	r.mu.Lock()
	r.cursors[client.ID] = model.Cursor{ClientID: client.ID, X: *cmd.X, Y: *cmd.Y}
	r.mu.Unlock()
	// Sender included; the client ignores its own echo.
	r.broadcast(protocol.Event{Type: protocol.EvtCursorMove, ClientID: client.ID, X: cmd.X, Y: cmd.Y})
}

func (h *BoardHub) handleCursorLeft(client *BoardClient) {
	if client == nil {
		return
	}
	r := client.room
	r.mu.Lock()
	delete(r.cursors, client.ID)
	r.mu.Unlock()
	r.broadcastExcept(client, protocol.Event{Type: protocol.EvtCursorLeft, ClientID: client.ID})
}
