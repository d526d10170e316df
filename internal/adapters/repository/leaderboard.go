package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/sportiq/internal/adapters/storage"
	"github.com/okian/sportiq/internal/domain/bus"
	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/pkg/logger"
	"github.com/okian/sportiq/pkg/metrics"
)

// DefaultMaxSize bounds each board.
const DefaultMaxSize = 100

// Leaderboards is the slice-backed Store. Boards are small and bounded, so
// every mutation re-sorts the whole board.
//
// Ordering: score DESC, then lastActive DESC. The sort is stable, so equal
// keys keep insertion order.
type Leaderboards struct {
	mu      sync.RWMutex
	boards  map[Board][]Entry
	maxSize int

	kv     storage.KV
	bus    bus.Bus
	now    func() time.Time
	logger logger.Logger
}

var _ Store = (*Leaderboards)(nil)

// NewLeaderboards loads the persisted boards. Unreadable state resets every
// board to empty.
func NewLeaderboards(ctx context.Context, opts ...Option) *Leaderboards {
	s := &Leaderboards{
		boards:  make(map[Board][]Entry, len(Boards)),
		maxSize: DefaultMaxSize,
		kv:      storage.NewMemory(),
		bus:     bus.Nop(),
		now:     time.Now,
		logger:  logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.load(ctx)
	return s
}

func (s *Leaderboards) load(ctx context.Context) {
	var stored map[Board][]Entry
	err := storage.LoadJSON(ctx, s.kv, storage.KeyLeaderboards, &stored)
	switch {
	case err == nil:
	case storage.IsNotFound(err):
	case errors.Is(err, storage.ErrCorrupt):
		metrics.RecordStateReset("leaderboard")
		s.logger.Error(ctx, "leaderboard state corrupt; starting fresh", logger.Error(err))
		stored = nil
	default:
		s.logger.Warn(ctx, "leaderboard load failed; starting fresh", logger.Error(err))
		stored = nil
	}

	for _, b := range Boards {
		entries := make([]Entry, 0, len(stored[b]))
		for _, e := range stored[b] {
			if e.UserID != "" {
				entries = append(entries, e)
			}
		}
		s.boards[b] = s.settle(entries)
		metrics.UpdateLeaderboardSize(string(b), len(s.boards[b]))
	}
}

// Upsert implements Store.Upsert.
func (s *Leaderboards) Upsert(ctx context.Context, board Board, patch EntryPatch) (Entry, error) {
	if !board.Valid() {
		return Entry{}, ErrInvalidBoard
	}
	patch.UserID = strings.TrimSpace(patch.UserID)
	if patch.UserID == "" {
		return Entry{}, ErrMissingUser
	}

	s.mu.Lock()
	entries := s.boards[board]
	idx := indexOf(entries, patch.UserID)
	if idx < 0 {
		entries = append(entries, Entry{UserID: patch.UserID, LastActive: s.now()})
		idx = len(entries) - 1
	}
	merge(&entries[idx], patch)
	merged := entries[idx]

	entries = s.settle(entries)
	s.boards[board] = entries
	merged.Rank = indexOf(entries, patch.UserID) + 1
	size := len(entries)
	s.persistLocked(ctx)
	s.mu.Unlock()

	metrics.RecordLeaderboardUpdate(string(board))
	metrics.UpdateLeaderboardSize(string(board), size)
	s.bus.Publish(ctx, model.TopicLeaderboardUpdated, model.Payload{
		"board":   string(board),
		"user_id": merged.UserID,
		"score":   merged.Score,
		"rank":    merged.Rank,
	})

	return merged, nil
}

func merge(e *Entry, p EntryPatch) {
	if p.DisplayName != nil {
		e.DisplayName = *p.DisplayName
	}
	if p.Score != nil {
		e.Score = *p.Score
	}
	if p.LastActive != nil {
		e.LastActive = *p.LastActive
	}
}

// settle sorts entries, truncates them to maxSize and numbers the ranks.
func (s *Leaderboards) settle(entries []Entry) []Entry {
	sortEntries(entries)
	if len(entries) > s.maxSize {
		entries = entries[:s.maxSize]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// SortAll implements Store.SortAll.
func (s *Leaderboards) SortAll(ctx context.Context) {
	s.mu.Lock()
	for _, b := range Boards {
		s.boards[b] = s.settle(s.boards[b])
	}
	s.persistLocked(ctx)
	s.mu.Unlock()
}

// UserRank implements Store.UserRank.
func (s *Leaderboards) UserRank(_ context.Context, userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.boards[BoardAllTime], userID) + 1
}

// Rank implements Store.Rank.
func (s *Leaderboards) Rank(_ context.Context, board Board, userID string) (Entry, error) {
	if !board.Valid() {
		return Entry{}, ErrInvalidBoard
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.boards[board]
	idx := indexOf(entries, userID)
	if idx < 0 {
		return Entry{}, ErrNotFound
	}
	return entries[idx], nil
}

// TopN implements Store.TopN.
func (s *Leaderboards) TopN(_ context.Context, board Board, n int) ([]Entry, error) {
	if !board.Valid() {
		return nil, ErrInvalidBoard
	}
	if n < 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.boards[board]
	if n == 0 || n > len(entries) {
		n = len(entries)
	}
	out := make([]Entry, n)
	copy(out, entries[:n])
	return out, nil
}

// Count implements Store.Count.
func (s *Leaderboards) Count(_ context.Context, board Board) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.boards[board])
}

// Reset implements Store.Reset.
func (s *Leaderboards) Reset(ctx context.Context, board Board) error {
	if !board.Valid() {
		return ErrInvalidBoard
	}
	s.mu.Lock()
	s.boards[board] = nil
	s.persistLocked(ctx)
	s.mu.Unlock()

	metrics.RecordLeaderboardReset(string(board))
	metrics.UpdateLeaderboardSize(string(board), 0)
	s.logger.Info(ctx, "leaderboard reset", logger.String("board", string(board)))
	s.bus.Publish(ctx, model.TopicLeaderboardUpdated, model.Payload{
		"board": string(board),
		"reset": true,
	})
	return nil
}

// MaxSize returns the per-board cap.
func (s *Leaderboards) MaxSize() int { return s.maxSize }

func (s *Leaderboards) persistLocked(ctx context.Context) {
	if err := storage.SaveJSON(ctx, s.kv, storage.KeyLeaderboards, s.boards); err != nil {
		s.logger.Warn(ctx, "leaderboard persist failed", logger.Error(err))
	}
}

func indexOf(entries []Entry, userID string) int {
	for i := range entries {
		if entries[i].UserID == userID {
			return i
		}
	}
	return -1
}

// sortEntries orders by score DESC, then lastActive DESC.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].LastActive.After(entries[j].LastActive)
	})
}
