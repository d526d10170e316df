package model

import "time"

// InteractionType enumerates the fan actions folded into interest vectors.
type InteractionType string

// Known interaction types.
const (
	InteractionView         InteractionType = "view"
	InteractionClick        InteractionType = "click"
	InteractionShare        InteractionType = "share"
	InteractionSearch       InteractionType = "search"
	InteractionCompleteRead InteractionType = "complete_read"
)

// InteractionTypes lists every known type in a stable order.
var InteractionTypes = []InteractionType{
	InteractionView,
	InteractionClick,
	InteractionShare,
	InteractionSearch,
	InteractionCompleteRead,
}

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	for _, k := range InteractionTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Metadata describes what a fan interacted with.
type Metadata struct {
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
	ItemID   string   `json:"item_id,omitempty"`
}

// Interaction is one entry of a profile's bounded history.
type Interaction struct {
	Type     InteractionType `json:"type"`
	Metadata Metadata        `json:"metadata"`
	At       time.Time       `json:"at"`
}

// ContentItem is a rankable article. The ranker never mutates it.
type ContentItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Tags        []string  `json:"tags"`
	Category    string    `json:"category,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Popularity  float64   `json:"popularity"`
}
