// Package types contains the request and report shapes shared by the
// service and its HTTP adapter.
package types

import "github.com/okian/sportiq/internal/domain/model"

// Submission is one fan interaction entering the engine. EventID is the
// idempotency key; an empty EventID disables replay detection.
type Submission struct {
	EventID  string                `json:"event_id"`
	UserID   string                `json:"user_id"`
	Type     model.InteractionType `json:"type"`
	Metadata model.Metadata        `json:"metadata"`
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Started    bool           `json:"started"`
	BusMode    string         `json:"bus_mode"`
	Shards     int            `json:"shards"`
	Pending    int            `json:"pending_events"`
	Profiles   int            `json:"profiles"`
	Players    int            `json:"players"`
	Catalog    int            `json:"catalog_items"`
	Boards     map[string]int `json:"boards"`
	BoardCap   int            `json:"board_max_size"`
	DedupeSize int64          `json:"dedupe_size"`
}
