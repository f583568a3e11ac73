package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabboard-backend/internal/model"
)

func TestDecodeCommandDropsMalformedFrames(t *testing.T) {
	assert.Nil(t, DecodeCommand([]byte("not json")))
	assert.Nil(t, DecodeCommand([]byte(`{"strokeId":"s1"}`))) // no type
	assert.Nil(t, DecodeCommand([]byte(`[]`)))
	assert.Nil(t, DecodeCommand([]byte(``)))
}

func TestDecodeCommandKeepsUnknownTypes(t *testing.T) {
	// Unknown discriminators decode fine; the dispatcher drops them later.
	cmd := DecodeCommand([]byte(`{"type":"SOMETHING_NEW","id":"x"}`))
	require.NotNil(t, cmd)
	assert.Equal(t, "SOMETHING_NEW", cmd.Type)
}

func TestDecodeCommandZeroCoordinatesSurvive(t *testing.T) {
	cmd := DecodeCommand([]byte(`{"type":"CURSOR_MOVE","x":0,"y":0}`))
	require.NotNil(t, cmd)
	require.NotNil(t, cmd.X)
	require.NotNil(t, cmd.Y)
	assert.Equal(t, 0.0, *cmd.X)

	// Absent is distinguishable from zero.
	cmd = DecodeCommand([]byte(`{"type":"CURSOR_MOVE"}`))
	require.NotNil(t, cmd)
	assert.Nil(t, cmd.X)
}

func TestDecodeEventMirrorsCommandRules(t *testing.T) {
	assert.Nil(t, DecodeEvent([]byte("{")))
	assert.Nil(t, DecodeEvent([]byte(`{"clientId":"u-1"}`)))

	evt := DecodeEvent([]byte(`{"type":"STROKE_MOVED","strokeId":"s1","dx":-3,"dy":0}`))
	require.NotNil(t, evt)
	assert.Equal(t, EvtStrokeMoved, evt.Type)
	require.NotNil(t, evt.DX)
	assert.Equal(t, -3.0, *evt.DX)
	require.NotNil(t, evt.DY)
	assert.Equal(t, 0.0, *evt.DY)
}

func TestEventOmitsAbsentFields(t *testing.T) {
	x := 1.5
	data, err := json.Marshal(Event{Type: EvtStickyMoved, ID: "n1", X: &x})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Contains(t, m, "x")
	assert.NotContains(t, m, "y")
	assert.NotContains(t, m, "width")
	assert.NotContains(t, m, "strokes")
}

func TestCommandPatchLifters(t *testing.T) {
	x, text := 4.0, "hi"
	on := true
	from := model.StickyRef("n1")
	cmd := &Command{Type: CmdUpdateSticky, ID: "n1", X: &x, Text: &text, CenterLabel: &on, From: &from}

	sp := cmd.StickyPatch()
	assert.Same(t, cmd.X, sp.X)
	assert.Same(t, cmd.Text, sp.Text)
	assert.Nil(t, sp.Y)

	tp := cmd.TextPatch()
	assert.Same(t, cmd.CenterLabel, tp.CenterLabel)

	fp := cmd.FramePatch()
	assert.Same(t, cmd.X, fp.X)
	assert.Nil(t, fp.Title)

	cp := cmd.ConnectorPatch()
	assert.Same(t, cmd.From, cp.From)
	assert.Nil(t, cp.To)
}

func TestUpdatedEventBuildersCarryOnlyDelta(t *testing.T) {
	y := 9.0
	evt := StickyUpdated("n1", model.StickyPatch{Y: &y})
	assert.Equal(t, EvtStickyUpdated, evt.Type)
	assert.Equal(t, "n1", evt.ID)
	assert.Same(t, &y, evt.Y)
	assert.Nil(t, evt.X)
	assert.Nil(t, evt.Text)

	to := model.PointRef(1, 2)
	cevt := ConnectorUpdated("c1", model.ConnectorPatch{To: &to})
	assert.Equal(t, EvtConnectorUpdated, cevt.Type)
	assert.Same(t, &to, cevt.To)
	assert.Nil(t, cevt.From)
}
