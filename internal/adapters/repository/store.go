// Package repository keeps the fan leaderboards: bounded, sorted boards of
// per-user scores.
package repository

import (
	"context"
	"time"
)

// Board names a leaderboard.
type Board string

// Known boards.
const (
	BoardAllTime Board = "all_time"
	BoardWeekly  Board = "weekly"
	BoardDaily   Board = "daily"
)

// Boards lists every known board.
var Boards = []Board{BoardAllTime, BoardWeekly, BoardDaily}

// Valid reports whether b is a known board.
func (b Board) Valid() bool {
	for _, known := range Boards {
		if b == known {
			return true
		}
	}
	return false
}

// Entry represents a leaderboard row.
type Entry struct {
	Rank        int       `json:"rank,omitempty"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Score       float64   `json:"score"`
	LastActive  time.Time `json:"last_active"`
}

// EntryPatch carries the fields to merge into an entry. Nil fields keep
// their current value.
type EntryPatch struct {
	UserID      string
	DisplayName *string
	Score       *float64
	LastActive  *time.Time
}

// Store provides read/write access to the leaderboards.
type Store interface {
	// Upsert merges patch into the user's entry on board, re-sorts the board
	// and truncates it to its maximum size. The returned entry has Rank 0
	// when it fell off the board.
	Upsert(ctx context.Context, board Board, patch EntryPatch) (Entry, error)

	// SortAll re-sorts every board.
	SortAll(ctx context.Context)

	// UserRank returns the 1-based position on the all-time board, or 0
	// when the user is absent.
	UserRank(ctx context.Context, userID string) int

	// Rank returns the user's entry on board. Returns ErrNotFound if absent.
	Rank(ctx context.Context, board Board, userID string) (Entry, error)

	// TopN returns the first n entries of board (n == 0 means all).
	TopN(ctx context.Context, board Board, n int) ([]Entry, error)

	// Count returns the number of entries on board.
	Count(ctx context.Context, board Board) int

	// Reset empties board.
	Reset(ctx context.Context, board Board) error
}
