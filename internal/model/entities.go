package model

// Point is a coordinate in world space. The client maps world to screen
// with its own pan/zoom transform; the server never sees screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ShapeTag marks a stroke as a primitive shape. A tagged stroke carries
// exactly two points, interpreted as opposite bounding-box corners.
// An empty tag means freehand polyline.
type ShapeTag string

const (
	ShapeNone        ShapeTag = ""
	ShapeRect        ShapeTag = "rect"
	ShapeCircle      ShapeTag = "circle"
	ShapeDiamond     ShapeTag = "diamond"
	ShapeRoundedRect ShapeTag = "roundedRect"
)

// Default appearance constants. These match what the web client
// renders when a create command omits the optional fields.
const (
	DefaultStrokeColor    = "#e2e8f0"
	DefaultStickyColor    = "#fef9c3"
	DefaultTextColor      = "#e2e8f0"
	DefaultConnectorColor = "#94a3b8"

	DefaultStickyWidth  = 160.0
	DefaultStickyHeight = 100.0
	DefaultTextWidth    = 200.0
	DefaultTextHeight   = 40.0
	DefaultFrameWidth   = 280.0
	DefaultFrameHeight  = 200.0
)

// Stroke is the only ordered entity. Seq is assigned exactly once by the
// server at creation and is the sort key for draw order; StrokeID is the
// client-generated identity used for optimistic reconciliation.
type Stroke struct {
	StrokeID string   `json:"strokeId"`
	Seq      int64    `json:"seq"`
	Points   []Point  `json:"points"`
	Color    string   `json:"color,omitempty"`
	Shape    ShapeTag `json:"shape,omitempty"`
	Rotation float64  `json:"rotation,omitempty"`
}

// Sticky is a colored note. Mutable in place by id, no ordering guarantee.
type Sticky struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Text     string  `json:"text"`
	Color    string  `json:"color"`
	Rotation float64 `json:"rotation,omitempty"`
}

// TextElement is a sticky without the colored background. CenterLabel
// marks text auto-generated as a shape's label by the flowchart composite.
type TextElement struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Text        string  `json:"text"`
	Color       string  `json:"color"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Rotation    float64 `json:"rotation,omitempty"`
	CenterLabel bool    `json:"centerLabel,omitempty"`
}

// Frame is a visual grouping rectangle. It does not own children;
// membership is purely spatial.
type Frame struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Title    string  `json:"title,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
}

// EndpointKind discriminates the EndpointRef union.
type EndpointKind string

const (
	EndpointPoint  EndpointKind = "point"
	EndpointSticky EndpointKind = "sticky"
	EndpointText   EndpointKind = "text"
	EndpointStroke EndpointKind = "stroke"
)

// EndpointRef is one end of a connector: either a fixed world point or a
// reference to a sticky, text element, or stroke by id. Referenced ids
// must exist; deleting the referent cascade-deletes the connector.
type EndpointRef struct {
	Type     EndpointKind `json:"type"`
	X        float64      `json:"x,omitempty"`
	Y        float64      `json:"y,omitempty"`
	ID       string       `json:"id,omitempty"`
	StrokeID string       `json:"strokeId,omitempty"`
}

// PointRef builds a fixed-point endpoint.
func PointRef(x, y float64) EndpointRef {
	return EndpointRef{Type: EndpointPoint, X: x, Y: y}
}

// StickyRef builds an endpoint referencing a sticky note.
func StickyRef(id string) EndpointRef { return EndpointRef{Type: EndpointSticky, ID: id} }

// TextRef builds an endpoint referencing a text element.
func TextRef(id string) EndpointRef { return EndpointRef{Type: EndpointText, ID: id} }

// StrokeRef builds an endpoint referencing a stroke.
func StrokeRef(strokeID string) EndpointRef {
	return EndpointRef{Type: EndpointStroke, StrokeID: strokeID}
}

// Valid reports whether the ref is a well-formed member of the union.
func (r EndpointRef) Valid() bool {
	switch r.Type {
	case EndpointPoint:
		return true
	case EndpointSticky, EndpointText:
		return r.ID != ""
	case EndpointStroke:
		return r.StrokeID != ""
	default:
		return false
	}
}

// RefersTo reports whether the ref targets the given entity. Used by the
// cascade-delete scan.
func (r EndpointRef) RefersTo(kind EndpointKind, id string) bool {
	switch r.Type {
	case EndpointPoint:
		return false
	case EndpointSticky, EndpointText:
		return r.Type == kind && r.ID == id
	case EndpointStroke:
		return kind == EndpointStroke && r.StrokeID == id
	default:
		return false
	}
}

// Connector is an arrow between two endpoints.
type Connector struct {
	ID    string      `json:"id"`
	From  EndpointRef `json:"from"`
	To    EndpointRef `json:"to"`
	Color string      `json:"color"`
}

// References reports whether either endpoint targets the given entity.
func (c Connector) References(kind EndpointKind, id string) bool {
	return c.From.RefersTo(kind, id) || c.To.RefersTo(kind, id)
}

// Cursor is ephemeral presence for one client. Never persisted.
type Cursor struct {
	ClientID string  `json:"clientId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// RosterEntry is one attached client in the USERS broadcast.
type RosterEntry struct {
	ClientID string `json:"clientId"`
	Username string `json:"username"`
}
