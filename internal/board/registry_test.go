package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabboard-backend/internal/model"
)

// fakeRepo is an in-test Repository with controllable results.
type fakeRepo struct {
	mu     sync.Mutex
	states map[string]*State
	loadCh chan struct{} // when set, Load blocks until it closes
	failN  int           // first N saves fail
	saves  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{states: make(map[string]*State)}
}

func (r *fakeRepo) Load(_ context.Context, boardID string) (*State, error) {
	if r.loadCh != nil {
		<-r.loadCh
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[boardID]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (r *fakeRepo) Save(_ context.Context, boardID string, s *State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.failN > 0 {
		r.failN--
		return errors.New("save failed")
	}
	r.states[boardID] = s.Clone()
	return nil
}

func (r *fakeRepo) saved(boardID string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[boardID]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestRegistryGetIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	assert.Same(t, r.Get("b1"), r.Get("b1"))
	assert.NotSame(t, r.Get("b1"), r.Get("b2"))
	assert.False(t, r.Persistent())
}

func TestBackgroundLoadInstallsPersistedState(t *testing.T) {
	repo := newFakeRepo()
	seed := NewState()
	seed.AddStroke("a", pts(0, 0), "", "")
	repo.states["b1"] = seed

	loaded := make(chan string, 1)
	r := NewRegistry(repo)
	r.OnLoaded(func(boardID string) { loaded <- boardID })

	b := r.Get("b1")
	select {
	case id := <-loaded:
		assert.Equal(t, "b1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("load callback never fired")
	}

	snap := b.Snapshot()
	require.Len(t, snap.Strokes, 1)
	assert.Equal(t, int64(1), snap.NextSeq)
}

func TestStaleLoadDiscardedAfterMutation(t *testing.T) {
	repo := newFakeRepo()
	seed := NewState()
	seed.AddSticky(model.Sticky{ID: "old", X: 0, Y: 0})
	repo.states["b1"] = seed
	repo.loadCh = make(chan struct{})

	r := NewRegistry(repo)
	var callbacks int
	r.OnLoaded(func(string) { callbacks++ })

	b := r.Get("b1")
	// Mutation wins the race while the load is stuck on the fake disk.
	b.Mutate(func(s *State) bool {
		s.AddSticky(model.Sticky{ID: "new", X: 1, Y: 1})
		return true
	})
	close(repo.loadCh)

	waitFor(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.loaded
	})

	snap := b.Snapshot()
	require.Len(t, snap.Stickies, 1)
	assert.Equal(t, "new", snap.Stickies[0].ID)
	assert.Zero(t, callbacks)
}

func TestFlushAllPersistsOnlyDirtyBoards(t *testing.T) {
	repo := newFakeRepo()
	r := NewRegistry(repo)

	b := r.Get("b1")
	r.Get("b2") // never mutated

	b.Mutate(func(s *State) bool {
		s.AddStroke("a", pts(0, 0), "", "")
		return true
	})

	r.FlushAll(context.Background())
	require.NotNil(t, repo.saved("b1"))
	assert.Nil(t, repo.saved("b2"))
	assert.Len(t, repo.saved("b1").Strokes, 1)

	// Clean boards are skipped on the next cycle.
	before := repo.saves
	r.FlushAll(context.Background())
	assert.Equal(t, before, repo.saves)
}

func TestFailedSaveRetriedNextCycle(t *testing.T) {
	repo := newFakeRepo()
	r := NewRegistry(repo)

	b := r.Get("b1")
	b.Mutate(func(s *State) bool {
		s.AddStroke("a", pts(0, 0), "", "")
		return true
	})

	repo.failN = 1
	r.FlushAll(context.Background())
	assert.Nil(t, repo.saved("b1"))

	r.FlushAll(context.Background())
	require.NotNil(t, repo.saved("b1"))
}

func TestConsumeDirtySnapshotIsIsolated(t *testing.T) {
	b := newBoard("b1")
	b.Mutate(func(s *State) bool {
		s.AddStroke("a", pts(0, 0), "", "")
		return true
	})

	snap := b.consumeDirty()
	require.NotNil(t, snap)
	snap.Strokes[0].Points[0].X = 42

	assert.Equal(t, 0.0, b.Snapshot().Strokes[0].Points[0].X)
	assert.Nil(t, b.consumeDirty())
}

func TestMutateReportsChange(t *testing.T) {
	b := newBoard("b1")

	changed := b.Mutate(func(s *State) bool { return false })
	assert.False(t, changed)
	assert.Nil(t, b.consumeDirty())

	changed = b.Mutate(func(s *State) bool {
		s.AddSticky(model.Sticky{ID: "n1", X: 0, Y: 0})
		return true
	})
	assert.True(t, changed)
	assert.NotNil(t, b.consumeDirty())
}
