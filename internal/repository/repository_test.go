package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabboard-backend/internal/board"
	"collabboard-backend/internal/model"
)

func TestMemoryRepositoryLoadAbsentBoard(t *testing.T) {
	repo := NewMemoryBoardRepository()
	s, err := repo.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	repo := NewMemoryBoardRepository()
	ctx := context.Background()

	s := board.NewState()
	s.AddStroke("s1", []model.Point{{X: 1, Y: 2}}, "#fff", "")
	s.AddSticky(model.Sticky{ID: "n1", X: 3, Y: 4})
	require.NoError(t, repo.Save(ctx, "b1", s))

	loaded, err := repo.Load(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(1), loaded.NextSeq)
	require.Len(t, loaded.Strokes, 1)
	require.Len(t, loaded.Stickies, 1)
}

func TestMemoryRepositoryIsolatesCallers(t *testing.T) {
	repo := NewMemoryBoardRepository()
	ctx := context.Background()

	s := board.NewState()
	s.AddStroke("s1", []model.Point{{X: 1, Y: 1}}, "", "")
	require.NoError(t, repo.Save(ctx, "b1", s))

	// Mutating the saved-from state must not leak into the store.
	s.Strokes[0].Points[0].X = 99

	loaded, err := repo.Load(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, loaded.Strokes[0].Points[0].X)

	// Nor may mutating a loaded copy.
	loaded.Strokes[0].Points[0].X = 42
	again, err := repo.Load(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, again.Strokes[0].Points[0].X)
}

func TestMemoryRepositoryLastWriteWins(t *testing.T) {
	repo := NewMemoryBoardRepository()
	ctx := context.Background()

	first := board.NewState()
	first.AddSticky(model.Sticky{ID: "n1", X: 0, Y: 0})
	require.NoError(t, repo.Save(ctx, "b1", first))

	second := board.NewState()
	second.AddSticky(model.Sticky{ID: "n2", X: 0, Y: 0})
	require.NoError(t, repo.Save(ctx, "b1", second))

	loaded, err := repo.Load(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, loaded.Stickies, 1)
	assert.Equal(t, "n2", loaded.Stickies[0].ID)
}

func TestColumnCodecToleratesCorruptData(t *testing.T) {
	var strokes []model.Stroke

	decodeColumn("", &strokes)
	assert.Empty(t, strokes)

	decodeColumn("{not json", &strokes)
	assert.Empty(t, strokes)

	decodeColumn(`[{"strokeId":"s1","points":[{"x":1,"y":2}]}]`, &strokes)
	require.Len(t, strokes, 1)
	assert.Equal(t, "s1", strokes[0].StrokeID)

	assert.Equal(t, "[]", encodeColumn([]model.Stroke{}))
	assert.Equal(t, "null", encodeColumn([]model.Stroke(nil)))
}
