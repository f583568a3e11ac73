// Package protocol defines the JSON message vocabulary exchanged over a
// board websocket. Every message is a flat object with a "type"
// discriminator; optional fields use pointers so zero coordinates survive
// the wire. Empty collections are omitted — absent means empty.
package protocol

import (
	"encoding/json"

	"collabboard-backend/internal/model"
)

// Client → server command types.
const (
	CmdAddStroke          = "ADD_STROKE"
	CmdDeleteStrokes      = "DELETE_STROKES"
	CmdMoveStroke         = "MOVE_STROKE"
	CmdSetStrokeColor     = "SET_STROKE_COLOR"
	CmdSetStrokeRotation  = "SET_STROKE_ROTATION"
	CmdUpdateStrokePoints = "UPDATE_STROKE_POINTS"

	CmdAddSticky            = "ADD_STICKY"
	CmdUpdateSticky         = "UPDATE_STICKY"
	CmdDeleteSticky         = "DELETE_STICKY"
	CmdUpdateStickyPosition = "UPDATE_STICKY_POSITION"

	CmdAddTextElement     = "ADD_TEXT_ELEMENT"
	CmdUpdateTextElement  = "UPDATE_TEXT_ELEMENT"
	CmdDeleteTextElement  = "DELETE_TEXT_ELEMENT"
	CmdUpdateTextPosition = "UPDATE_TEXT_POSITION"

	CmdAddFrame    = "ADD_FRAME"
	CmdUpdateFrame = "UPDATE_FRAME"
	CmdDeleteFrame = "DELETE_FRAME"

	CmdAddConnector    = "ADD_CONNECTOR"
	CmdUpdateConnector = "UPDATE_CONNECTOR"
	CmdDeleteConnector = "DELETE_CONNECTOR"

	CmdCursorMove = "CURSOR_MOVE"
	CmdCursorLeft = "CURSOR_LEFT"
	CmdPing       = "PING"
)

// Server → client event types.
const (
	EvtMe      = "ME"
	EvtState   = "STATE"
	EvtSeq     = "SEQ"
	EvtCursors = "CURSORS"
	EvtUsers   = "USERS"

	EvtStrokeAdded           = "STROKE_ADDED"
	EvtStrokesRemoved        = "STROKES_REMOVED"
	EvtStrokeMoved           = "STROKE_MOVED"
	EvtStrokeColorChanged    = "STROKE_COLOR_CHANGED"
	EvtStrokePointsUpdated   = "STROKE_POINTS_UPDATED"
	EvtStrokeRotationChanged = "STROKE_ROTATION_CHANGED"

	EvtStickyAdded   = "STICKY_ADDED"
	EvtStickyUpdated = "STICKY_UPDATED"
	EvtStickyRemoved = "STICKY_REMOVED"
	EvtStickyMoved   = "STICKY_MOVED"

	EvtTextAdded   = "TEXT_ADDED"
	EvtTextUpdated = "TEXT_UPDATED"
	EvtTextRemoved = "TEXT_REMOVED"
	EvtTextMoved   = "TEXT_MOVED"

	EvtFrameAdded   = "FRAME_ADDED"
	EvtFrameUpdated = "FRAME_UPDATED"
	EvtFrameRemoved = "FRAME_REMOVED"

	EvtConnectorAdded   = "CONNECTOR_ADDED"
	EvtConnectorUpdated = "CONNECTOR_UPDATED"
	EvtConnectorRemoved = "CONNECTOR_REMOVED"

	EvtCursorMove = "CURSOR_MOVE"
	EvtCursorLeft = "CURSOR_LEFT"
)

// Websocket close codes for refused connections. Distinct codes let the
// client react differently (board picker vs. re-login vs. generic retry).
const (
	CloseNoBoard      = 4001
	CloseUnauthorized = 4002
	CloseNotMember    = 4003
)

// Command is an inbound mutation or presence message. All fields beyond
// Type are optional; the handler for each type validates what it needs
// and silently drops the rest.
type Command struct {
	Type string `json:"type"`

	// Strokes
	StrokeID  string         `json:"strokeId,omitempty"`
	StrokeIDs []string       `json:"strokeIds,omitempty"`
	Points    []model.Point  `json:"points,omitempty"`
	Shape     model.ShapeTag `json:"shape,omitempty"`
	DX        float64        `json:"dx,omitempty"`
	DY        float64        `json:"dy,omitempty"`

	// Positioned entities
	ID          string   `json:"id,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Text        *string  `json:"text,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Rotation    *float64 `json:"rotation,omitempty"`
	Title       *string  `json:"title,omitempty"`
	CenterLabel *bool    `json:"centerLabel,omitempty"`

	// Connectors
	From *model.EndpointRef `json:"from,omitempty"`
	To   *model.EndpointRef `json:"to,omitempty"`
}

// DecodeCommand parses an inbound frame. A nil return means the frame is
// malformed or missing its discriminator and must be dropped silently.
func DecodeCommand(raw []byte) *Command {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil
	}
	if cmd.Type == "" {
		return nil
	}
	return &cmd
}

// StickyPatch lifts the command's optional fields into a patch.
func (c *Command) StickyPatch() model.StickyPatch {
	return model.StickyPatch{
		X: c.X, Y: c.Y, Width: c.Width, Height: c.Height,
		Text: c.Text, Color: c.Color, Rotation: c.Rotation,
	}
}

// TextPatch lifts the command's optional fields into a patch.
func (c *Command) TextPatch() model.TextPatch {
	return model.TextPatch{
		X: c.X, Y: c.Y, Text: c.Text, Color: c.Color,
		Width: c.Width, Height: c.Height, Rotation: c.Rotation,
		CenterLabel: c.CenterLabel,
	}
}

// FramePatch lifts the command's optional fields into a patch.
func (c *Command) FramePatch() model.FramePatch {
	return model.FramePatch{
		X: c.X, Y: c.Y, Width: c.Width, Height: c.Height,
		Title: c.Title, Rotation: c.Rotation,
	}
}

// ConnectorPatch lifts the command's optional fields into a patch.
func (c *Command) ConnectorPatch() model.ConnectorPatch {
	return model.ConnectorPatch{From: c.From, To: c.To, Color: c.Color}
}

// Event is an outbound message. The hub serializes each event exactly
// once and writes the same bytes to every connection on the board.
type Event struct {
	Type string `json:"type"`

	// Identity / roster / presence
	ClientID string              `json:"clientId,omitempty"`
	Username string              `json:"username,omitempty"`
	Cursors  []model.Cursor      `json:"cursors,omitempty"`
	Users    []model.RosterEntry `json:"users,omitempty"`

	// Snapshot
	Strokes      []model.Stroke      `json:"strokes,omitempty"`
	Stickies     []model.Sticky      `json:"stickies,omitempty"`
	TextElements []model.TextElement `json:"textElements,omitempty"`
	Connectors   []model.Connector   `json:"connectors,omitempty"`
	Frames       []model.Frame       `json:"frames,omitempty"`
	NextSeq      *int64              `json:"nextSeq,omitempty"`

	// Entity deltas
	Stroke      *model.Stroke      `json:"stroke,omitempty"`
	Sticky      *model.Sticky      `json:"sticky,omitempty"`
	TextElement *model.TextElement `json:"textElement,omitempty"`
	Frame       *model.Frame       `json:"frame,omitempty"`
	Connector   *model.Connector   `json:"connector,omitempty"`

	ID        string        `json:"id,omitempty"`
	StrokeID  string        `json:"strokeId,omitempty"`
	StrokeIDs []string      `json:"strokeIds,omitempty"`
	Points    []model.Point `json:"points,omitempty"`
	DX        *float64      `json:"dx,omitempty"`
	DY        *float64      `json:"dy,omitempty"`

	// Changed fields of partial updates
	X           *float64           `json:"x,omitempty"`
	Y           *float64           `json:"y,omitempty"`
	Width       *float64           `json:"width,omitempty"`
	Height      *float64           `json:"height,omitempty"`
	Text        *string            `json:"text,omitempty"`
	Color       *string            `json:"color,omitempty"`
	Rotation    *float64           `json:"rotation,omitempty"`
	Title       *string            `json:"title,omitempty"`
	CenterLabel *bool              `json:"centerLabel,omitempty"`
	From        *model.EndpointRef `json:"from,omitempty"`
	To          *model.EndpointRef `json:"to,omitempty"`
}

// DecodeEvent parses a server frame on the client side.
func DecodeEvent(raw []byte) *Event {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil
	}
	if evt.Type == "" {
		return nil
	}
	return &evt
}

// StickyUpdated builds the delta event for a partial sticky update.
func StickyUpdated(id string, d model.StickyPatch) Event {
	return Event{
		Type: EvtStickyUpdated, ID: id,
		X: d.X, Y: d.Y, Width: d.Width, Height: d.Height,
		Text: d.Text, Color: d.Color, Rotation: d.Rotation,
	}
}

// TextUpdated builds the delta event for a partial text-element update.
func TextUpdated(id string, d model.TextPatch) Event {
	return Event{
		Type: EvtTextUpdated, ID: id,
		X: d.X, Y: d.Y, Text: d.Text, Color: d.Color,
		Width: d.Width, Height: d.Height, Rotation: d.Rotation,
		CenterLabel: d.CenterLabel,
	}
}

// FrameUpdated builds the delta event for a partial frame update.
func FrameUpdated(id string, d model.FramePatch) Event {
	return Event{
		Type: EvtFrameUpdated, ID: id,
		X: d.X, Y: d.Y, Width: d.Width, Height: d.Height,
		Title: d.Title, Rotation: d.Rotation,
	}
}

// ConnectorUpdated builds the delta event for a partial connector update.
func ConnectorUpdated(id string, d model.ConnectorPatch) Event {
	return Event{Type: EvtConnectorUpdated, ID: id, From: d.From, To: d.To, Color: d.Color}
}
