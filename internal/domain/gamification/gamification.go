// Package gamification turns fan activity into experience points, levels
// on a power-law curve, and one-time badges.
package gamification

import (
	"context"
	"errors"
	"fmt"
	"math"
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

// Level curve defaults.
const (
	DefaultBase       = 100.0
	DefaultMultiplier = 1.5
	DefaultMaxGrant   = 100_000.0
)

// Badge unlocks once a fan has performed Action Threshold times.
type Badge struct {
	ID        string  `json:"id" koanf:"id"`
	Name      string  `json:"name" koanf:"name"`
	Action    string  `json:"action" koanf:"action"`
	Threshold int     `json:"threshold" koanf:"threshold"`
	XPReward  float64 `json:"xp_reward" koanf:"xp_reward"`
}

// DefaultBadges is the stock badge catalog.
func DefaultBadges() []Badge {
	return []Badge{
		{ID: "first_view", Name: "First Whistle", Action: string(model.InteractionView), Threshold: 1, XPReward: 10},
		{ID: "avid_reader", Name: "Avid Reader", Action: string(model.InteractionCompleteRead), Threshold: 10, XPReward: 100},
		{ID: "sharer", Name: "Crowd Pleaser", Action: string(model.InteractionShare), Threshold: 5, XPReward: 50},
		{ID: "searcher", Name: "Scout", Action: string(model.InteractionSearch), Threshold: 10, XPReward: 30},
		{ID: "completionist", Name: "Season Ticket", Action: string(model.InteractionCompleteRead), Threshold: 50, XPReward: 500},
	}
}

// State is the persisted gamification state of one fan.
type State struct {
	UserID       string               `json:"user_id"`
	XP           float64              `json:"xp"`
	Level        int                  `json:"level"`
	Badges       map[string]time.Time `json:"badges"`
	Achievements map[string]int       `json:"achievement_counts"`
}

// HasBadge reports whether id is unlocked.
func (s State) HasBadge(id string) bool {
	_, ok := s.Badges[id]
	return ok
}

// BadgeIDs returns the unlocked badges sorted by id.
func (s State) BadgeIDs() []string {
	ids := make([]string, 0, len(s.Badges))
	for id := range s.Badges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Progress describes how far a fan is into the current level.
type Progress struct {
	Level         int     `json:"level"`
	XP            float64 `json:"xp"`
	LevelStart    float64 `json:"level_start"`
	NextThreshold float64 `json:"next_threshold"`
	Fraction      float64 `json:"fraction"`
}

// Outcome reports what a single grant or achievement step changed.
type Outcome struct {
	XPGained  float64  `json:"xp_gained"`
	LevelsUp  int      `json:"levels_up"`
	Level     int      `json:"level"`
	XP        float64  `json:"xp"`
	NewBadges []string `json:"new_badges,omitempty"`
}

// Leveler owns the gamification state of a single fan.
type Leveler struct {
	mu sync.Mutex

	userID     string
	state      State
	base       float64
	multiplier float64
	maxGrant   float64
	badges     []Badge

	kv     storage.KV
	bus    bus.Bus
	now    func() time.Time
	logger logger.Logger
}

type pending struct {
	topic   string
	payload model.Payload
}

// NewLeveler loads the state of userID. Unreadable persisted state is
// discarded and the fan starts again at level 1.
func NewLeveler(ctx context.Context, userID string, opts ...Option) *Leveler {
	l := &Leveler{
		userID:     strings.TrimSpace(userID),
		base:       DefaultBase,
		multiplier: DefaultMultiplier,
		maxGrant:   DefaultMaxGrant,
		badges:     DefaultBadges(),
		kv:         storage.NewMemory(),
		bus:        bus.Nop(),
		now:        time.Now,
		logger:     logger.Nop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	l.load(ctx)
	return l
}

func (l *Leveler) key() string { return storage.KeyGamificationPrefix + l.userID }

func (l *Leveler) load(ctx context.Context) {
	var s State
	err := storage.LoadJSON(ctx, l.kv, l.key(), &s)
	switch {
	case err == nil:
	case storage.IsNotFound(err):
		s = State{}
	case errors.Is(err, storage.ErrCorrupt):
		metrics.RecordStateReset("gamification")
		l.logger.Error(ctx, "gamification state corrupt; starting fresh",
			logger.String("userID", l.userID), logger.Error(err))
		s = State{}
	default:
		l.logger.Warn(ctx, "gamification load failed; starting fresh",
			logger.String("userID", l.userID), logger.Error(err))
		s = State{}
	}

	if s.Level < 1 {
		s.Level = 1
	}
	if s.XP < 0 || math.IsNaN(s.XP) {
		s.XP = 0
	}
	if s.Badges == nil {
		s.Badges = make(map[string]time.Time)
	}
	if s.Achievements == nil {
		s.Achievements = make(map[string]int)
	}
	s.UserID = l.userID
	l.state = s
}

// Threshold returns the cumulative xp needed to leave level.
func (l *Leveler) Threshold(level int) float64 {
	return Threshold(l.base, l.multiplier, level)
}

// Threshold is base * level^multiplier.
func Threshold(base, multiplier float64, level int) float64 {
	return base * math.Pow(float64(level), multiplier)
}

// GainXP adds amount to the cumulative xp and levels up as many times as
// the new total allows. Non-positive, non-finite and amounts above the
// configured max grant are rejected.
func (l *Leveler) GainXP(ctx context.Context, amount float64) (Outcome, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Outcome{}, ErrInvalidAmount
	}
	if amount > l.maxGrant {
		return Outcome{}, fmt.Errorf("%w: %v exceeds the %v limit", ErrInvalidAmount, amount, l.maxGrant)
	}

	l.mu.Lock()
	var events []pending
	out := l.gainLocked(amount, &events)
	l.persistLocked(ctx)
	l.mu.Unlock()

	l.flush(ctx, events)
	return out, nil
}

func (l *Leveler) gainLocked(amount float64, events *[]pending) Outcome {
	l.state.XP += amount
	before := l.state.Level
	for l.state.XP >= l.Threshold(l.state.Level) {
		l.state.Level++
		metrics.RecordLevelUp()
		*events = append(*events, pending{model.TopicLevelUp, model.Payload{
			"user_id": l.userID,
			"level":   l.state.Level,
			"xp":      l.state.XP,
		}})
	}
	metrics.RecordXPGranted(amount)

	*events = append(*events, pending{model.TopicXPGained, model.Payload{
		"user_id": l.userID,
		"amount":  amount,
		"xp":      l.state.XP,
		"level":   l.state.Level,
	}})

	return Outcome{
		XPGained: amount,
		LevelsUp: l.state.Level - before,
		Level:    l.state.Level,
		XP:       l.state.XP,
	}
}

// UpdateAchievementProgress counts one more action and unlocks every badge
// on that action whose threshold is now met. Each badge unlocks once and
// grants its reward through the xp curve.
func (l *Leveler) UpdateAchievementProgress(ctx context.Context, action string) (Outcome, error) {
	action = normalizeAction(action)
	if action == "" {
		return Outcome{}, ErrEmptyAction
	}

	l.mu.Lock()
	var events []pending
	l.state.Achievements[action]++
	count := l.state.Achievements[action]

	out := Outcome{Level: l.state.Level, XP: l.state.XP}
	for _, b := range l.badges {
		if b.Action != action || count < b.Threshold || l.state.HasBadge(b.ID) {
			continue
		}
		l.state.Badges[b.ID] = l.now()
		out.NewBadges = append(out.NewBadges, b.ID)
		metrics.RecordBadgeUnlocked(b.ID)
		events = append(events, pending{model.TopicBadgeUnlocked, model.Payload{
			"user_id":   l.userID,
			"badge_id":  b.ID,
			"name":      b.Name,
			"xp_reward": b.XPReward,
		}})
		if b.XPReward > 0 {
			g := l.gainLocked(b.XPReward, &events)
			out.XPGained += g.XPGained
			out.LevelsUp += g.LevelsUp
		}
	}
	out.Level = l.state.Level
	out.XP = l.state.XP
	l.persistLocked(ctx)
	l.mu.Unlock()

	for _, id := range out.NewBadges {
		l.logger.Info(ctx, "badge unlocked", logger.String("userID", l.userID), logger.String("badge", id))
	}
	l.flush(ctx, events)
	return out, nil
}

// Snapshot returns a deep copy of the state.
func (l *Leveler) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state
	s.Badges = make(map[string]time.Time, len(l.state.Badges))
	for k, v := range l.state.Badges {
		s.Badges[k] = v
	}
	s.Achievements = make(map[string]int, len(l.state.Achievements))
	for k, v := range l.state.Achievements {
		s.Achievements[k] = v
	}
	return s
}

// Progress reports the xp position inside the current level.
func (l *Leveler) Progress() Progress {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := Progress{
		Level:         l.state.Level,
		XP:            l.state.XP,
		NextThreshold: l.Threshold(l.state.Level),
	}
	if l.state.Level > 1 {
		p.LevelStart = l.Threshold(l.state.Level - 1)
	}
	if span := p.NextThreshold - p.LevelStart; span > 0 {
		p.Fraction = math.Min(1, math.Max(0, (p.XP-p.LevelStart)/span))
	}
	return p
}

// Badges returns the configured badge catalog.
func (l *Leveler) Badges() []Badge {
	return append([]Badge(nil), l.badges...)
}

func (l *Leveler) persistLocked(ctx context.Context) {
	if err := storage.SaveJSON(ctx, l.kv, l.key(), l.state); err != nil {
		l.logger.Warn(ctx, "gamification persist failed",
			logger.String("userID", l.userID), logger.Error(err))
	}
}

func (l *Leveler) flush(ctx context.Context, events []pending) {
	for _, e := range events {
		l.bus.Publish(ctx, e.topic, e.payload)
	}
}

func normalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}
