package board

import (
	"context"
	"log"
	"sync"
	"time"
)

const loadTimeout = 10 * time.Second

// Repository is the durable-store dependency. Load returns (nil, nil)
// when the board has never been saved. Both operations must be idempotent
// and safe with overlapping writes (last write wins). A nil Repository
// means the system runs as ephemeral in-memory boards.
type Repository interface {
	Load(ctx context.Context, boardID string) (*State, error)
	Save(ctx context.Context, boardID string, s *State) error
}

// Registry looks up per-board owners by id. Boards are created on first
// touch; with a repository configured, creation schedules a background
// load so the durable copy is never read on the live message path.
type Registry struct {
	mu     sync.Mutex
	boards map[string]*Board
	repo   Repository

	// onLoaded fires after a background load is installed, so the hub can
	// push a full-state resync to clients already attached and waiting on
	// empty state.
	onLoaded func(boardID string)
}

// NewRegistry creates a registry over an optional repository.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		boards: make(map[string]*Board),
		repo:   repo,
	}
}

// OnLoaded registers the load-completion hook. Must be set before the
// first Get; the hub does this at construction.
func (r *Registry) OnLoaded(fn func(boardID string)) {
	r.onLoaded = fn
}

// Persistent reports whether a durable repository is configured.
func (r *Registry) Persistent() bool {
	return r.repo != nil
}

// Get returns the in-memory board for id, creating an empty one and
// scheduling its background load on first access.
func (r *Registry) Get(boardID string) *Board {
	r.mu.Lock()
	if b, ok := r.boards[boardID]; ok {
		r.mu.Unlock()
		return b
	}
	b := newBoard(boardID)
	r.boards[boardID] = b
	r.mu.Unlock()

	if r.repo != nil {
		go r.loadBoard(b)
	}
	return b
}

func (r *Registry) loadBoard(b *Board) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	s, err := r.repo.Load(ctx, b.ID)
	if err != nil {
		// Load failure degrades to an empty board; persistence is
		// best-effort durability, not a correctness requirement.
		log.Printf("[Board %s] Load failed, starting empty: %v", b.ID, err)
		return
	}
	if s == nil {
		return
	}
	if !b.installLoaded(s) {
		log.Printf("[Board %s] Discarding stale load (board mutated first)", b.ID)
		return
	}
	log.Printf("[Board %s] Loaded persisted state (%d strokes, nextSeq=%d)",
		b.ID, len(s.Strokes), s.NextSeq)
	if r.onLoaded != nil {
		r.onLoaded(b.ID)
	}
}

// RunFlusher persists every dirty board on a fixed interval until ctx is
// cancelled, then does one final pass. Saves never run on the message
// path; a failed save is re-marked dirty and retried next cycle.
func (r *Registry) RunFlusher(ctx context.Context, interval time.Duration) {
	if r.repo == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.FlushAll(context.Background())
			return
		case <-ticker.C:
			r.FlushAll(ctx)
		}
	}
}

// FlushAll saves every dirty board once.
func (r *Registry) FlushAll(ctx context.Context) {
	if r.repo == nil {
		return
	}
	r.mu.Lock()
	boards := make([]*Board, 0, len(r.boards))
	for _, b := range r.boards {
		boards = append(boards, b)
	}
	r.mu.Unlock()

	for _, b := range boards {
		snapshot := b.consumeDirty()
		if snapshot == nil {
			continue
		}
		if err := r.repo.Save(ctx, b.ID, snapshot); err != nil {
			log.Printf("[Flush] Save failed for board %s, will retry: %v", b.ID, err)
			b.markDirty()
		}
	}
}
