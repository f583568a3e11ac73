package board

import (
	"sync"
)

// Board owns the authoritative state for one board id and serializes all
// access to it. Handlers mutate through Mutate so that apply, dirty
// marking, and broadcast serialization happen in one critical section —
// that is the whole per-board ordering guarantee.
type Board struct {
	ID string

	mu    sync.Mutex
	state *State

	// dirty: mutated since the last flush cycle.
	// mutated: mutated at least once since creation; a background load
	// that resolves after the first mutation is discarded so a slow disk
	// read can never clobber live edits.
	dirty   bool
	mutated bool
	loaded  bool
}

func newBoard(id string) *Board {
	return &Board{ID: id, state: NewState()}
}

// Mutate runs fn with exclusive access to the state. When fn reports a
// change the board is marked dirty for the next flush cycle. fn is also
// the place to serialize and fan out broadcasts: nothing else can touch
// the state until it returns.
func (b *Board) Mutate(fn func(s *State) bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fn(b.state) {
		b.dirty = true
		b.mutated = true
		return true
	}
	return false
}

// View runs fn with shared access semantics (still exclusive — reads are
// rare enough that a reader lock isn't worth the asymmetry).
func (b *Board) View(fn func(s *State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.state)
}

// Snapshot deep-copies the current state for serialization outside the
// critical section.
func (b *Board) Snapshot() *State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}

// installLoaded replaces the in-memory state with repository data, unless
// a mutation won the race — then the stale load is discarded.
func (b *Board) installLoaded(s *State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loaded = true
	if b.mutated {
		return false
	}
	b.state = s
	return true
}

// consumeDirty atomically clears the dirty flag and hands back a snapshot
// to persist. Returns nil when the board is clean.
func (b *Board) consumeDirty() *State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty {
		return nil
	}
	b.dirty = false
	return b.state.Clone()
}

// markDirty re-flags the board, used when a save attempt fails and must
// be retried on the next cycle.
func (b *Board) markDirty() {
	b.mu.Lock()
	b.dirty = true
	b.mu.Unlock()
}
