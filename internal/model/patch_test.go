package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }
func sp(v string) *string   { return &v }

func TestStickyPatchAppliesOnlyChangedFields(t *testing.T) {
	n := Sticky{ID: "n1", X: 10, Y: 20, Width: 160, Text: "a", Color: "#fff"}

	delta, changed := StickyPatch{X: fp(10), Y: fp(30), Text: sp("b")}.Apply(&n)
	require.True(t, changed)

	assert.Nil(t, delta.X)
	require.NotNil(t, delta.Y)
	assert.Equal(t, 30.0, *delta.Y)
	require.NotNil(t, delta.Text)
	assert.Equal(t, "b", *delta.Text)
	assert.Nil(t, delta.Width)

	assert.Equal(t, 30.0, n.Y)
	assert.Equal(t, "b", n.Text)
}

func TestStickyPatchNoChange(t *testing.T) {
	n := Sticky{ID: "n1", X: 10}
	_, changed := StickyPatch{X: fp(10)}.Apply(&n)
	assert.False(t, changed)

	_, changed = StickyPatch{}.Apply(&n)
	assert.False(t, changed)
}

func TestTextPatchCenterLabel(t *testing.T) {
	el := TextElement{ID: "t1", Text: "x"}
	on := true

	delta, changed := TextPatch{CenterLabel: &on}.Apply(&el)
	require.True(t, changed)
	require.NotNil(t, delta.CenterLabel)
	assert.True(t, el.CenterLabel)

	// Setting it to the value it already has is not a change.
	_, changed = TextPatch{CenterLabel: &on}.Apply(&el)
	assert.False(t, changed)
}

func TestConnectorPatchIgnoresInvalidRefs(t *testing.T) {
	c := Connector{ID: "c1", From: PointRef(0, 0), To: PointRef(1, 1), Color: "#aaa"}

	invalid := EndpointRef{Type: EndpointSticky} // missing id
	delta, changed := ConnectorPatch{From: &invalid, Color: sp("#bbb")}.Apply(&c)
	require.True(t, changed)
	assert.Nil(t, delta.From)
	assert.Equal(t, PointRef(0, 0), c.From)
	assert.Equal(t, "#bbb", c.Color)
}

func TestEndpointRefValidity(t *testing.T) {
	assert.True(t, PointRef(0, 0).Valid())
	assert.True(t, StickyRef("n1").Valid())
	assert.True(t, TextRef("t1").Valid())
	assert.True(t, StrokeRef("s1").Valid())

	assert.False(t, EndpointRef{Type: EndpointSticky}.Valid())
	assert.False(t, EndpointRef{Type: EndpointStroke}.Valid())
	assert.False(t, EndpointRef{Type: "frame", ID: "f1"}.Valid())
}

func TestConnectorReferences(t *testing.T) {
	c := Connector{From: StickyRef("n1"), To: StrokeRef("s1")}

	assert.True(t, c.References(EndpointSticky, "n1"))
	assert.True(t, c.References(EndpointStroke, "s1"))
	assert.False(t, c.References(EndpointText, "n1"))
	assert.False(t, c.References(EndpointSticky, "n2"))

	points := Connector{From: PointRef(0, 0), To: PointRef(1, 1)}
	assert.False(t, points.References(EndpointSticky, "n1"))
}
