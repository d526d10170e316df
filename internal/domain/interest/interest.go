// Package interest folds fan interactions into a per-user interest vector
// that decays while the fan is away.
package interest

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sportiq/internal/adapters/storage"
	"github.com/okian/sportiq/internal/domain/bus"
	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/internal/domain/ring"
	"github.com/okian/sportiq/pkg/logger"
	"github.com/okian/sportiq/pkg/metrics"
)

// Scoring constants.
const (
	DefaultDecayRate       = 0.98
	DefaultHistoryCapacity = 100
	// PruneFloor is the score under which a topic is forgotten after decay.
	PruneFloor = 0.1
	// MinDecayDays is the idle time before decay applies.
	MinDecayDays = 0.5
	hoursPerDay  = 24
)

// DefaultWeights returns the per-type boost table.
func DefaultWeights() map[model.InteractionType]float64 {
	return map[model.InteractionType]float64{
		model.InteractionView:         1,
		model.InteractionClick:        3,
		model.InteractionShare:        10,
		model.InteractionSearch:       5,
		model.InteractionCompleteRead: 8,
	}
}

// Profile is the persisted interest state of one fan.
type Profile struct {
	ID               string              `json:"id"`
	UserID           string              `json:"user_id"`
	Interests        map[string]float64  `json:"interest_vector"`
	History          []model.Interaction `json:"history"`
	LastActive       time.Time           `json:"last_active"`
	InteractionCount int                 `json:"interaction_count"`
}

// Interest is one ranked topic.
type Interest struct {
	Topic string  `json:"topic"`
	Score float64 `json:"score"`
}

// DecayResult describes what one ApplyDecay call did.
type DecayResult struct {
	Applied     bool    `json:"applied"`
	ElapsedDays float64 `json:"elapsed_days"`
	Pruned      int     `json:"pruned"`
}

// Tracker owns the interest profile of a single fan.
type Tracker struct {
	mu sync.Mutex

	userID     string
	profile    Profile
	history    *ring.Buffer[model.Interaction]
	weights    map[model.InteractionType]float64
	decayRate  float64
	historyCap int

	kv     storage.KV
	bus    bus.Bus
	now    func() time.Time
	logger logger.Logger
}

// NewTracker loads the profile of userID (an anonymous id is generated when
// userID is empty) and applies any decay owed since the last session.
// Unreadable persisted state is discarded, never returned as an error.
func NewTracker(ctx context.Context, userID string, opts ...Option) *Tracker {
	t := &Tracker{
		userID:     strings.TrimSpace(userID),
		weights:    DefaultWeights(),
		decayRate:  DefaultDecayRate,
		historyCap: DefaultHistoryCapacity,
		kv:         storage.NewMemory(),
		bus:        bus.Nop(),
		now:        time.Now,
		logger:     logger.Nop(),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.userID == "" {
		t.userID = "anon-" + uuid.NewString()
	}
	t.load(ctx)
	t.ApplyDecay(ctx)

	return t
}

// UserID returns the fan this tracker belongs to.
func (t *Tracker) UserID() string { return t.userID }

// Weight returns the boost applied for kind, 0 for unknown kinds.
func (t *Tracker) Weight(kind model.InteractionType) float64 {
	return t.weights[kind]
}

func (t *Tracker) key() string { return storage.KeyProfilePrefix + t.userID }

func (t *Tracker) load(ctx context.Context) {
	var p Profile
	err := storage.LoadJSON(ctx, t.kv, t.key(), &p)
	switch {
	case err == nil:
	case storage.IsNotFound(err):
		p = Profile{}
	case errors.Is(err, storage.ErrCorrupt):
		metrics.RecordStateReset("profile")
		t.logger.Error(ctx, "profile state corrupt; starting fresh",
			logger.String("userID", t.userID), logger.Error(err))
		p = Profile{}
	default:
		t.logger.Warn(ctx, "profile load failed; starting fresh",
			logger.String("userID", t.userID), logger.Error(err))
		p = Profile{}
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Interests == nil {
		p.Interests = make(map[string]float64)
	}
	for topic, score := range p.Interests {
		if score < 0 || math.IsNaN(score) {
			delete(p.Interests, topic)
		}
	}
	p.UserID = t.userID
	t.history = ring.FromSlice(t.historyCap, p.History)
	p.History = nil
	t.profile = p
}

// TrackInteraction settles any decay owed since the last activity, boosts
// every tag and the category of md by the weight of kind, records the
// interaction in the bounded history, and publishes the updated profile.
func (t *Tracker) TrackInteraction(ctx context.Context, kind model.InteractionType, md model.Metadata) error {
	if !kind.Valid() {
		return ErrUnknownInteraction
	}

	t.mu.Lock()
	decay := t.decayLocked(t.now())
	w := t.weights[kind]
	for _, tag := range md.Tags {
		t.boostLocked(tag, w)
	}
	if md.Category != "" {
		t.boostLocked(md.Category, w)
	}
	now := t.now()
	t.history.Push(model.Interaction{Type: kind, Metadata: md, At: now})
	t.profile.LastActive = now
	t.profile.InteractionCount++
	t.persistLocked(ctx)
	snap := t.snapshotLocked()
	t.mu.Unlock()

	if decay.Applied {
		t.logDecay(ctx, decay)
	}
	metrics.RecordInteraction(string(kind))
	t.publish(ctx, snap)
	return nil
}

// BoostInterest adds amount to topic (lowercased and trimmed). Blank topics
// are ignored.
func (t *Tracker) BoostInterest(ctx context.Context, topic string, amount float64) {
	t.mu.Lock()
	if !t.boostLocked(topic, amount) {
		t.mu.Unlock()
		return
	}
	t.persistLocked(ctx)
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.publish(ctx, snap)
}

func (t *Tracker) boostLocked(topic string, amount float64) bool {
	key := Normalize(topic)
	if key == "" || amount < 0 || math.IsNaN(amount) {
		return false
	}
	t.profile.Interests[key] = round2(t.profile.Interests[key] + amount)
	return true
}

// ApplyDecay scales every score by decayRate^elapsedDays once more than half
// a day has passed since the last activity, then forgets topics under
// PruneFloor. Calling it again without elapsed time is a no-op.
func (t *Tracker) ApplyDecay(ctx context.Context) DecayResult {
	t.mu.Lock()
	res := t.decayLocked(t.now())
	if !res.Applied {
		t.mu.Unlock()
		return res
	}
	t.persistLocked(ctx)
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.logDecay(ctx, res)
	t.publish(ctx, snap)
	return res
}

// decayLocked scales the scores in place and moves LastActive to now when
// more than MinDecayDays have passed. The caller persists.
func (t *Tracker) decayLocked(now time.Time) DecayResult {
	if t.profile.LastActive.IsZero() {
		return DecayResult{}
	}
	days := now.Sub(t.profile.LastActive).Hours() / hoursPerDay
	res := DecayResult{ElapsedDays: days}
	if days <= MinDecayDays {
		return res
	}

	for topic, score := range t.profile.Interests {
		decayed := Decay(score, days, t.decayRate)
		if decayed < PruneFloor {
			delete(t.profile.Interests, topic)
			res.Pruned++
			continue
		}
		t.profile.Interests[topic] = decayed
	}
	t.profile.LastActive = now
	res.Applied = true
	return res
}

func (t *Tracker) logDecay(ctx context.Context, res DecayResult) {
	metrics.RecordDecay(res.Pruned)
	t.logger.Debug(ctx, "interest decay applied",
		logger.String("userID", t.userID),
		logger.Float64("elapsedDays", res.ElapsedDays),
		logger.Int("pruned", res.Pruned),
	)
}

// Snapshot returns a deep copy of the profile.
func (t *Tracker) Snapshot() Profile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Profile {
	p := t.profile
	p.Interests = make(map[string]float64, len(t.profile.Interests))
	for k, v := range t.profile.Interests {
		p.Interests[k] = v
	}
	p.History = t.history.Items()
	return p
}

// TopInterests returns up to n topics by descending score (n <= 0 means all).
func (t *Tracker) TopInterests(n int) []Interest {
	t.mu.Lock()
	out := make([]Interest, 0, len(t.profile.Interests))
	for topic, score := range t.profile.Interests {
		out = append(out, Interest{Topic: topic, Score: score})
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Topic < out[j].Topic
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (t *Tracker) persistLocked(ctx context.Context) {
	p := t.profile
	p.History = t.history.Items()
	if err := storage.SaveJSON(ctx, t.kv, t.key(), p); err != nil {
		t.logger.Warn(ctx, "profile persist failed",
			logger.String("userID", t.userID), logger.Error(err))
	}
}

func (t *Tracker) publish(ctx context.Context, p Profile) {
	t.bus.Publish(ctx, model.TopicProfileUpdated, model.Payload{
		"user_id":           p.UserID,
		"profile_id":        p.ID,
		"interests":         p.Interests,
		"last_active":       p.LastActive,
		"interaction_count": p.InteractionCount,
	})
}

// Decay returns score after days of idleness at rate per day. Idle periods
// of half a day or less leave the score unchanged.
func Decay(score, days, rate float64) float64 {
	if days <= MinDecayDays {
		return score
	}
	return score * math.Pow(rate, days)
}

// Normalize lowercases and trims a topic key.
func Normalize(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
