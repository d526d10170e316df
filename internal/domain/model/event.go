// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Topics carried on the bus.
const (
	TopicProfileUpdated       = "profile:updated"
	TopicFanInteraction       = "fan:interaction"
	TopicXPGained             = "gamification:xp_gained"
	TopicLevelUp              = "gamification:level_up"
	TopicBadgeUnlocked        = "gamification:badge_unlocked"
	TopicRecommendationsReady = "recommendations:ready"
	TopicLeaderboardUpdated   = "leaderboard:updated"
	TopicContentNew           = "content:new"
	TopicArticleView          = "article:view"
	TopicUIClick              = "ui:click"
	TopicSearchQuery          = "search:query"
)

// Event is a single publication on a topic. Payloads are ad hoc per topic.
type Event struct {
	ID      string
	Topic   string
	Payload Payload
	TS      time.Time
}

// NewEvent stamps a payload with a fresh id and the current time.
func NewEvent(topic string, payload Payload) Event {
	if payload == nil {
		payload = Payload{}
	}
	return Event{
		ID:      uuid.NewString(),
		Topic:   topic,
		Payload: payload,
		TS:      time.Now(),
	}
}

// Payload is the opaque body of an Event.
type Payload map[string]any

// String returns the string at key, or "" when absent or of another type.
func (p Payload) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Float returns the numeric value at key. JSON-decoded numbers arrive as
// float64; in-process publishers may use int.
func (p Payload) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Strings returns the string list at key. Both []string and the []any
// produced by encoding/json are accepted; non-string elements are skipped.
func (p Payload) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}
