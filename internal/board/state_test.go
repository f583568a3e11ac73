package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabboard-backend/internal/model"
)

func pts(coords ...float64) []model.Point {
	points := make([]model.Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		points = append(points, model.Point{X: coords[i], Y: coords[i+1]})
	}
	return points
}

func TestAddStrokeAssignsMonotonicSeq(t *testing.T) {
	s := NewState()

	first := s.AddStroke("a", pts(0, 0, 1, 1), "", "")
	second := s.AddStroke("b", pts(2, 2), "#fff", "")
	third := s.AddStroke("c", pts(3, 3), "", model.ShapeRect)

	assert.Equal(t, int64(0), first.Seq)
	assert.Equal(t, int64(1), second.Seq)
	assert.Equal(t, int64(2), third.Seq)
	assert.Equal(t, int64(3), s.NextSeq)

	// Default color only fills the blank.
	assert.Equal(t, model.DefaultStrokeColor, first.Color)
	assert.Equal(t, "#fff", second.Color)
}

func TestSeqNotReusedAfterDelete(t *testing.T) {
	s := NewState()
	s.AddStroke("a", pts(0, 0), "", "")
	s.AddStroke("b", pts(1, 1), "", "")

	removed, _ := s.DeleteStrokes([]string{"a", "b"})
	require.Len(t, removed, 2)

	next := s.AddStroke("c", pts(2, 2), "", "")
	assert.Equal(t, int64(2), next.Seq)
}

func TestMoveStrokeComposesTranslations(t *testing.T) {
	s := NewState()
	s.AddStroke("a", pts(1, 2, 3, 4), "", "")

	require.True(t, s.MoveStroke("a", 10, 0))
	require.True(t, s.MoveStroke("a", 0, -2))

	assert.Equal(t, pts(11, 0, 13, 2), s.Strokes[0].Points)
}

func TestMutationsOnMissingEntitiesAreNoOps(t *testing.T) {
	s := NewState()

	assert.False(t, s.MoveStroke("ghost", 1, 1))
	assert.False(t, s.SetStrokeColor("ghost", "#fff"))
	assert.False(t, s.SetStrokeRotation("ghost", 45))
	assert.False(t, s.UpdateStrokePoints("ghost", pts(0, 0)))
	assert.False(t, s.MoveSticky("ghost", 1, 1))
	assert.False(t, s.MoveTextElement("ghost", 1, 1))
	assert.False(t, s.DeleteFrame("ghost"))
	assert.False(t, s.DeleteConnector("ghost"))

	_, ok := s.DeleteSticky("ghost")
	assert.False(t, ok)
	_, ok = s.DeleteTextElement("ghost")
	assert.False(t, ok)

	removed, cascaded := s.DeleteStrokes([]string{"ghost"})
	assert.Empty(t, removed)
	assert.Empty(t, cascaded)
}

func TestAddStickyAppliesDefaults(t *testing.T) {
	s := NewState()
	n := s.AddSticky(model.Sticky{ID: "n1", X: 5, Y: 6})

	assert.Equal(t, model.DefaultStickyWidth, n.Width)
	assert.Equal(t, model.DefaultStickyHeight, n.Height)
	assert.Equal(t, model.DefaultStickyColor, n.Color)

	custom := s.AddSticky(model.Sticky{ID: "n2", X: 0, Y: 0, Width: 50, Color: "#123456"})
	assert.Equal(t, 50.0, custom.Width)
	assert.Equal(t, model.DefaultStickyHeight, custom.Height)
	assert.Equal(t, "#123456", custom.Color)
}

func TestAddConnectorValidatesEndpoints(t *testing.T) {
	s := NewState()
	s.AddSticky(model.Sticky{ID: "n1", X: 0, Y: 0})

	_, ok := s.AddConnector(model.Connector{
		ID: "c1", From: model.StickyRef("n1"), To: model.StickyRef("missing"),
	})
	assert.False(t, ok)

	c, ok := s.AddConnector(model.Connector{
		ID: "c2", From: model.StickyRef("n1"), To: model.PointRef(10, 20),
	})
	require.True(t, ok)
	assert.Equal(t, model.DefaultConnectorColor, c.Color)
}

func TestDeleteStickyCascadesConnectors(t *testing.T) {
	s := NewState()
	s.AddSticky(model.Sticky{ID: "n1", X: 0, Y: 0})
	s.AddSticky(model.Sticky{ID: "n2", X: 1, Y: 1})
	s.AddConnector(model.Connector{ID: "c1", From: model.StickyRef("n1"), To: model.StickyRef("n2")})
	s.AddConnector(model.Connector{ID: "c2", From: model.PointRef(0, 0), To: model.StickyRef("n2")})
	s.AddConnector(model.Connector{ID: "c3", From: model.PointRef(0, 0), To: model.PointRef(1, 1)})

	cascaded, ok := s.DeleteSticky("n2")
	require.True(t, ok)

	ids := make([]string, len(cascaded))
	for i, c := range cascaded {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"c1", "c2"}, ids)
	require.Len(t, s.Connectors, 1)
	assert.Equal(t, "c3", s.Connectors[0].ID)
}

func TestDeleteStrokesCascadesConnectors(t *testing.T) {
	s := NewState()
	s.AddStroke("a", pts(0, 0), "", "")
	s.AddStroke("b", pts(1, 1), "", "")
	s.AddConnector(model.Connector{ID: "c1", From: model.StrokeRef("a"), To: model.PointRef(5, 5)})

	removed, cascaded := s.DeleteStrokes([]string{"a", "ghost", "b"})
	assert.Equal(t, []string{"a", "b"}, removed)
	require.Len(t, cascaded, 1)
	assert.Equal(t, "c1", cascaded[0].ID)
	assert.Empty(t, s.Strokes)
}

func TestUpdateStickyReturnsMinimalDelta(t *testing.T) {
	s := NewState()
	s.AddSticky(model.Sticky{ID: "n1", X: 10, Y: 20, Text: "hello"})

	x, text := 10.0, "world"
	delta, changed := s.UpdateSticky("n1", model.StickyPatch{X: &x, Text: &text})
	require.True(t, changed)

	// X matched the current value, so it must not appear in the delta.
	assert.Nil(t, delta.X)
	require.NotNil(t, delta.Text)
	assert.Equal(t, "world", *delta.Text)

	// A patch that changes nothing reports no change at all.
	_, changed = s.UpdateSticky("n1", model.StickyPatch{Text: &text})
	assert.False(t, changed)
}

func TestUpdateConnectorDropsInvalidEndpoints(t *testing.T) {
	s := NewState()
	s.AddSticky(model.Sticky{ID: "n1", X: 0, Y: 0})
	s.AddConnector(model.Connector{ID: "c1", From: model.StickyRef("n1"), To: model.PointRef(0, 0)})

	bad := model.StickyRef("missing")
	color := "#f00"
	delta, changed := s.UpdateConnector("c1", model.ConnectorPatch{To: &bad, Color: &color})
	require.True(t, changed)
	assert.Nil(t, delta.To)
	require.NotNil(t, delta.Color)

	// Endpoint unchanged.
	assert.Equal(t, model.PointRef(0, 0), s.Connectors[0].To)
}

func TestCloneIsolatesStrokePoints(t *testing.T) {
	s := NewState()
	s.AddStroke("a", pts(1, 1), "", "")

	c := s.Clone()
	c.Strokes[0].Points[0].X = 99
	c.AddStroke("b", pts(2, 2), "", "")

	assert.Equal(t, 1.0, s.Strokes[0].Points[0].X)
	assert.Len(t, s.Strokes, 1)
	assert.Equal(t, int64(1), s.NextSeq)
	assert.Equal(t, int64(2), c.NextSeq)
}
