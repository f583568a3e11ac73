package model

// Patches are last-writer-wins partial updates: only non-nil fields are
// applied. Apply returns the minimal delta of fields that actually
// changed, so broadcasts never clobber fields a concurrent editor just
// set to the same value they already hold.

// StickyPatch is a partial update for a sticky note.
type StickyPatch struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Text     *string  `json:"text,omitempty"`
	Color    *string  `json:"color,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// Apply merges the patch into s and returns the delta of changed fields.
func (p StickyPatch) Apply(s *Sticky) (StickyPatch, bool) {
	var delta StickyPatch
	changed := false
	if p.X != nil && *p.X != s.X {
		s.X, delta.X, changed = *p.X, p.X, true
	}
	if p.Y != nil && *p.Y != s.Y {
		s.Y, delta.Y, changed = *p.Y, p.Y, true
	}
	if p.Width != nil && *p.Width != s.Width {
		s.Width, delta.Width, changed = *p.Width, p.Width, true
	}
	if p.Height != nil && *p.Height != s.Height {
		s.Height, delta.Height, changed = *p.Height, p.Height, true
	}
	if p.Text != nil && *p.Text != s.Text {
		s.Text, delta.Text, changed = *p.Text, p.Text, true
	}
	if p.Color != nil && *p.Color != s.Color {
		s.Color, delta.Color, changed = *p.Color, p.Color, true
	}
	if p.Rotation != nil && *p.Rotation != s.Rotation {
		s.Rotation, delta.Rotation, changed = *p.Rotation, p.Rotation, true
	}
	return delta, changed
}

// TextPatch is a partial update for a text element.
type TextPatch struct {
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Text        *string  `json:"text,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Rotation    *float64 `json:"rotation,omitempty"`
	CenterLabel *bool    `json:"centerLabel,omitempty"`
}

// Apply merges the patch into t and returns the delta of changed fields.
func (p TextPatch) Apply(t *TextElement) (TextPatch, bool) {
	var delta TextPatch
	changed := false
	if p.X != nil && *p.X != t.X {
		t.X, delta.X, changed = *p.X, p.X, true
	}
	if p.Y != nil && *p.Y != t.Y {
		t.Y, delta.Y, changed = *p.Y, p.Y, true
	}
	if p.Text != nil && *p.Text != t.Text {
		t.Text, delta.Text, changed = *p.Text, p.Text, true
	}
	if p.Color != nil && *p.Color != t.Color {
		t.Color, delta.Color, changed = *p.Color, p.Color, true
	}
	if p.Width != nil && *p.Width != t.Width {
		t.Width, delta.Width, changed = *p.Width, p.Width, true
	}
	if p.Height != nil && *p.Height != t.Height {
		t.Height, delta.Height, changed = *p.Height, p.Height, true
	}
	if p.Rotation != nil && *p.Rotation != t.Rotation {
		t.Rotation, delta.Rotation, changed = *p.Rotation, p.Rotation, true
	}
	if p.CenterLabel != nil && *p.CenterLabel != t.CenterLabel {
		t.CenterLabel, delta.CenterLabel, changed = *p.CenterLabel, p.CenterLabel, true
	}
	return delta, changed
}

// FramePatch is a partial update for a frame.
type FramePatch struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Title    *string  `json:"title,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// Apply merges the patch into f and returns the delta of changed fields.
func (p FramePatch) Apply(f *Frame) (FramePatch, bool) {
	var delta FramePatch
	changed := false
	if p.X != nil && *p.X != f.X {
		f.X, delta.X, changed = *p.X, p.X, true
	}
	if p.Y != nil && *p.Y != f.Y {
		f.Y, delta.Y, changed = *p.Y, p.Y, true
	}
	if p.Width != nil && *p.Width != f.Width {
		f.Width, delta.Width, changed = *p.Width, p.Width, true
	}
	if p.Height != nil && *p.Height != f.Height {
		f.Height, delta.Height, changed = *p.Height, p.Height, true
	}
	if p.Title != nil && *p.Title != f.Title {
		f.Title, delta.Title, changed = *p.Title, p.Title, true
	}
	if p.Rotation != nil && *p.Rotation != f.Rotation {
		f.Rotation, delta.Rotation, changed = *p.Rotation, p.Rotation, true
	}
	return delta, changed
}

// ConnectorPatch is a partial update for a connector.
type ConnectorPatch struct {
	From  *EndpointRef `json:"from,omitempty"`
	To    *EndpointRef `json:"to,omitempty"`
	Color *string      `json:"color,omitempty"`
}

// Apply merges the patch into c and returns the delta of changed fields.
// Endpoint refs that fail Valid() are ignored rather than rejected.
func (p ConnectorPatch) Apply(c *Connector) (ConnectorPatch, bool) {
	var delta ConnectorPatch
	changed := false
	if p.From != nil && p.From.Valid() && *p.From != c.From {
		c.From, delta.From, changed = *p.From, p.From, true
	}
	if p.To != nil && p.To.Valid() && *p.To != c.To {
		c.To, delta.To, changed = *p.To, p.To, true
	}
	if p.Color != nil && *p.Color != c.Color {
		c.Color, delta.Color, changed = *p.Color, p.Color, true
	}
	return delta, changed
}
