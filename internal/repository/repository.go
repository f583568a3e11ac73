// Package repository persists full board states. Implementations are
// idempotent and last-write-wins; the live session never depends on them
// beyond best-effort durability.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"collabboard-backend/internal/board"
	"collabboard-backend/internal/model"
)

// GormBoardRepository stores one JSONB row per board.
type GormBoardRepository struct {
	db *gorm.DB
}

// NewGormBoardRepository wraps an established GORM connection.
func NewGormBoardRepository(db *gorm.DB) *GormBoardRepository {
	return &GormBoardRepository{db: db}
}

// Load reads the board row. Returns (nil, nil) for a never-saved board.
// A corrupt column degrades to an empty collection rather than failing
// the whole load.
func (r *GormBoardRepository) Load(ctx context.Context, boardID string) (*board.State, error) {
	var rec model.BoardStateRecord
	err := r.db.WithContext(ctx).Where("board_id = ?", boardID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load board %s: %w", boardID, err)
	}

	s := board.NewState()
	s.NextSeq = rec.NextSeq
	decodeColumn(rec.Strokes, &s.Strokes)
	decodeColumn(rec.Stickies, &s.Stickies)
	decodeColumn(rec.TextElements, &s.TextElements)
	decodeColumn(rec.Connectors, &s.Connectors)
	decodeColumn(rec.Frames, &s.Frames)
	return s, nil
}

func decodeColumn(raw string, dst any) {
	if raw == "" {
		return
	}
	// Errors leave dst at its empty-collection default.
	_ = json.Unmarshal([]byte(raw), dst)
}

// Save upserts the board row. Overlapping saves are safe: last write wins.
func (r *GormBoardRepository) Save(ctx context.Context, boardID string, s *board.State) error {
	rec := model.BoardStateRecord{
		BoardID:      boardID,
		Strokes:      encodeColumn(s.Strokes),
		Stickies:     encodeColumn(s.Stickies),
		TextElements: encodeColumn(s.TextElements),
		Connectors:   encodeColumn(s.Connectors),
		Frames:       encodeColumn(s.Frames),
		NextSeq:      s.NextSeq,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "board_id"}},
		UpdateAll: true,
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save board %s: %w", boardID, err)
	}
	return nil
}

func encodeColumn(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// MemoryBoardRepository keeps saved states in a map. Used in tests and
// as a stand-in where durability is not needed.
type MemoryBoardRepository struct {
	mu     sync.RWMutex
	boards map[string]*board.State
}

// NewMemoryBoardRepository creates an empty in-memory repository.
func NewMemoryBoardRepository() *MemoryBoardRepository {
	return &MemoryBoardRepository{boards: make(map[string]*board.State)}
}

// Load returns a copy of the saved state, or (nil, nil) when absent.
func (r *MemoryBoardRepository) Load(_ context.Context, boardID string) (*board.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.boards[boardID]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

// Save stores a copy of the state.
func (r *MemoryBoardRepository) Save(_ context.Context, boardID string, s *board.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards[boardID] = s.Clone()
	return nil
}
