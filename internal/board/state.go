package board

import (
	"collabboard-backend/internal/model"
)

// State holds every collection for one board plus the sequence counter.
// It is plain mutable data; all access is serialized by the owning Board.
type State struct {
	Strokes      []model.Stroke      `json:"strokes"`
	Stickies     []model.Sticky      `json:"stickies"`
	TextElements []model.TextElement `json:"textElements"`
	Connectors   []model.Connector   `json:"connectors"`
	Frames       []model.Frame       `json:"frames"`
	NextSeq      int64               `json:"nextSeq"`
}

// NewState returns an empty board state.
func NewState() *State {
	return &State{
		Strokes:      []model.Stroke{},
		Stickies:     []model.Sticky{},
		TextElements: []model.TextElement{},
		Connectors:   []model.Connector{},
		Frames:       []model.Frame{},
	}
}

// Clone deep-copies the state so snapshots can be serialized outside the
// board's critical section.
func (s *State) Clone() *State {
	c := &State{
		Strokes:      make([]model.Stroke, len(s.Strokes)),
		Stickies:     append([]model.Sticky{}, s.Stickies...),
		TextElements: append([]model.TextElement{}, s.TextElements...),
		Connectors:   append([]model.Connector{}, s.Connectors...),
		Frames:       append([]model.Frame{}, s.Frames...),
		NextSeq:      s.NextSeq,
	}
	for i, st := range s.Strokes {
		c.Strokes[i] = st
		c.Strokes[i].Points = append([]model.Point{}, st.Points...)
	}
	return c
}

// AddStroke assigns the next sequence number, applies the default color,
// and appends the stroke. Seq is assigned exactly once, here.
func (s *State) AddStroke(strokeID string, points []model.Point, color string, shape model.ShapeTag) model.Stroke {
	if color == "" {
		color = model.DefaultStrokeColor
	}
	st := model.Stroke{
		StrokeID: strokeID,
		Seq:      s.NextSeq,
		Points:   points,
		Color:    color,
		Shape:    shape,
	}
	s.NextSeq++
	s.Strokes = append(s.Strokes, st)
	return st
}

func (s *State) findStroke(strokeID string) *model.Stroke {
	for i := range s.Strokes {
		if s.Strokes[i].StrokeID == strokeID {
			return &s.Strokes[i]
		}
	}
	return nil
}

// MoveStroke translates every point by (dx, dy). Returns false when the
// stroke no longer exists.
func (s *State) MoveStroke(strokeID string, dx, dy float64) bool {
	st := s.findStroke(strokeID)
	if st == nil {
		return false
	}
	for i := range st.Points {
		st.Points[i].X += dx
		st.Points[i].Y += dy
	}
	return true
}

// SetStrokeColor updates the stroke color. No-op on a vanished stroke or
// an unchanged color.
func (s *State) SetStrokeColor(strokeID, color string) bool {
	st := s.findStroke(strokeID)
	if st == nil || color == "" || st.Color == color {
		return false
	}
	st.Color = color
	return true
}

// SetStrokeRotation updates the stroke rotation in degrees.
func (s *State) SetStrokeRotation(strokeID string, rotation float64) bool {
	st := s.findStroke(strokeID)
	if st == nil || st.Rotation == rotation {
		return false
	}
	st.Rotation = rotation
	return true
}

// UpdateStrokePoints replaces the point list (resize of shape strokes).
func (s *State) UpdateStrokePoints(strokeID string, points []model.Point) bool {
	st := s.findStroke(strokeID)
	if st == nil || len(points) == 0 {
		return false
	}
	st.Points = points
	return true
}

// DeleteStrokes removes the given strokes in one batch. It returns the
// ids that actually existed and, for each, the connectors cascaded away
// because they referenced a deleted stroke. Cascaded connectors come
// first so callers can broadcast child cleanup before the primary event.
func (s *State) DeleteStrokes(strokeIDs []string) (removed []string, cascaded []model.Connector) {
	for _, id := range strokeIDs {
		if s.findStroke(id) == nil {
			continue
		}
		cascaded = append(cascaded, s.removeConnectorsReferencing(model.EndpointStroke, id)...)
		kept := s.Strokes[:0]
		for _, st := range s.Strokes {
			if st.StrokeID != id {
				kept = append(kept, st)
			}
		}
		s.Strokes = kept
		removed = append(removed, id)
	}
	return removed, cascaded
}

// AddSticky applies default size/color for missing optional fields.
func (s *State) AddSticky(n model.Sticky) model.Sticky {
	if n.Width == 0 {
		n.Width = model.DefaultStickyWidth
	}
	if n.Height == 0 {
		n.Height = model.DefaultStickyHeight
	}
	if n.Color == "" {
		n.Color = model.DefaultStickyColor
	}
	s.Stickies = append(s.Stickies, n)
	return n
}

func (s *State) findSticky(id string) *model.Sticky {
	for i := range s.Stickies {
		if s.Stickies[i].ID == id {
			return &s.Stickies[i]
		}
	}
	return nil
}

// UpdateSticky applies a partial update and returns the minimal delta.
func (s *State) UpdateSticky(id string, p model.StickyPatch) (model.StickyPatch, bool) {
	n := s.findSticky(id)
	if n == nil {
		return model.StickyPatch{}, false
	}
	return p.Apply(n)
}

// MoveSticky sets the absolute position.
func (s *State) MoveSticky(id string, x, y float64) bool {
	n := s.findSticky(id)
	if n == nil {
		return false
	}
	n.X, n.Y = x, y
	return true
}

// DeleteSticky removes the sticky and cascades connector cleanup.
func (s *State) DeleteSticky(id string) (cascaded []model.Connector, ok bool) {
	if s.findSticky(id) == nil {
		return nil, false
	}
	cascaded = s.removeConnectorsReferencing(model.EndpointSticky, id)
	kept := s.Stickies[:0]
	for _, n := range s.Stickies {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.Stickies = kept
	return cascaded, true
}

// AddTextElement applies default size/color for missing optional fields.
func (s *State) AddTextElement(t model.TextElement) model.TextElement {
	if t.Width == 0 {
		t.Width = model.DefaultTextWidth
	}
	if t.Height == 0 {
		t.Height = model.DefaultTextHeight
	}
	if t.Color == "" {
		t.Color = model.DefaultTextColor
	}
	s.TextElements = append(s.TextElements, t)
	return t
}

func (s *State) findText(id string) *model.TextElement {
	for i := range s.TextElements {
		if s.TextElements[i].ID == id {
			return &s.TextElements[i]
		}
	}
	return nil
}

// UpdateTextElement applies a partial update and returns the minimal delta.
func (s *State) UpdateTextElement(id string, p model.TextPatch) (model.TextPatch, bool) {
	t := s.findText(id)
	if t == nil {
		return model.TextPatch{}, false
	}
	return p.Apply(t)
}

// MoveTextElement sets the absolute position.
func (s *State) MoveTextElement(id string, x, y float64) bool {
	t := s.findText(id)
	if t == nil {
		return false
	}
	t.X, t.Y = x, y
	return true
}

// DeleteTextElement removes the element and cascades connector cleanup.
func (s *State) DeleteTextElement(id string) (cascaded []model.Connector, ok bool) {
	if s.findText(id) == nil {
		return nil, false
	}
	cascaded = s.removeConnectorsReferencing(model.EndpointText, id)
	kept := s.TextElements[:0]
	for _, t := range s.TextElements {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.TextElements = kept
	return cascaded, true
}

// AddFrame applies default size for missing optional fields.
func (s *State) AddFrame(f model.Frame) model.Frame {
	if f.Width == 0 {
		f.Width = model.DefaultFrameWidth
	}
	if f.Height == 0 {
		f.Height = model.DefaultFrameHeight
	}
	s.Frames = append(s.Frames, f)
	return f
}

func (s *State) findFrame(id string) *model.Frame {
	for i := range s.Frames {
		if s.Frames[i].ID == id {
			return &s.Frames[i]
		}
	}
	return nil
}

// UpdateFrame applies a partial update and returns the minimal delta.
func (s *State) UpdateFrame(id string, p model.FramePatch) (model.FramePatch, bool) {
	f := s.findFrame(id)
	if f == nil {
		return model.FramePatch{}, false
	}
	return p.Apply(f)
}

// DeleteFrame removes the frame. Frames are never connector endpoints,
// so there is nothing to cascade.
func (s *State) DeleteFrame(id string) bool {
	if s.findFrame(id) == nil {
		return false
	}
	kept := s.Frames[:0]
	for _, f := range s.Frames {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	s.Frames = kept
	return true
}

// AddConnector validates both endpoints against current collections and
// applies the default color. Returns false when an endpoint references a
// nonexistent entity.
func (s *State) AddConnector(c model.Connector) (model.Connector, bool) {
	if !s.endpointExists(c.From) || !s.endpointExists(c.To) {
		return model.Connector{}, false
	}
	if c.Color == "" {
		c.Color = model.DefaultConnectorColor
	}
	s.Connectors = append(s.Connectors, c)
	return c, true
}

func (s *State) findConnector(id string) *model.Connector {
	for i := range s.Connectors {
		if s.Connectors[i].ID == id {
			return &s.Connectors[i]
		}
	}
	return nil
}

// UpdateConnector applies a partial update and returns the minimal delta.
// Endpoint changes referencing vanished entities are dropped.
func (s *State) UpdateConnector(id string, p model.ConnectorPatch) (model.ConnectorPatch, bool) {
	c := s.findConnector(id)
	if c == nil {
		return model.ConnectorPatch{}, false
	}
	if p.From != nil && !s.endpointExists(*p.From) {
		p.From = nil
	}
	if p.To != nil && !s.endpointExists(*p.To) {
		p.To = nil
	}
	return p.Apply(c)
}

// DeleteConnector removes the connector by id.
func (s *State) DeleteConnector(id string) bool {
	if s.findConnector(id) == nil {
		return false
	}
	kept := s.Connectors[:0]
	for _, c := range s.Connectors {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.Connectors = kept
	return true
}

func (s *State) endpointExists(r model.EndpointRef) bool {
	switch r.Type {
	case model.EndpointPoint:
		return true
	case model.EndpointSticky:
		return s.findSticky(r.ID) != nil
	case model.EndpointText:
		return s.findText(r.ID) != nil
	case model.EndpointStroke:
		return s.findStroke(r.StrokeID) != nil
	default:
		return false
	}
}

// removeConnectorsReferencing drops every connector with an endpoint on
// the given entity and returns them in collection order.
func (s *State) removeConnectorsReferencing(kind model.EndpointKind, id string) []model.Connector {
	var dropped []model.Connector
	kept := s.Connectors[:0]
	for _, c := range s.Connectors {
		if c.References(kind, id) {
			dropped = append(dropped, c)
		} else {
			kept = append(kept, c)
		}
	}
	s.Connectors = kept
	return dropped
}
