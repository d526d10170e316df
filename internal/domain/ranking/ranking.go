// Package ranking orders content for a fan by a linear blend of interest
// overlap, freshness, popularity and a small random discovery term.
package ranking

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/sportiq/internal/domain/bus"
	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/pkg/logger"
	"github.com/okian/sportiq/pkg/metrics"
)

// Default weights.
const (
	DefaultInterestWeight   = 5.0
	DefaultRecencyWeight    = 2.0
	DefaultPopularityWeight = 1.0
	DefaultDiscoveryWeight  = 0.5
	DefaultDecayHours       = 48.0
)

// Weights are the coefficients of the ranking formula.
type Weights struct {
	Interest   float64 `json:"interest"`
	Recency    float64 `json:"recency"`
	Popularity float64 `json:"popularity"`
	Discovery  float64 `json:"discovery"`
	// DecayHours is the age at which the recency term reaches zero.
	DecayHours float64 `json:"decay_hours"`
}

// DefaultWeights returns the stock coefficients.
func DefaultWeights() Weights {
	return Weights{
		Interest:   DefaultInterestWeight,
		Recency:    DefaultRecencyWeight,
		Popularity: DefaultPopularityWeight,
		Discovery:  DefaultDiscoveryWeight,
		DecayHours: DefaultDecayHours,
	}
}

// Scored is a ranked content item.
type Scored struct {
	Item  model.ContentItem `json:"item"`
	Score float64           `json:"score"`
}

// Ranker scores and orders content items against an interest vector.
type Ranker struct {
	weights Weights

	mu  sync.Mutex // guards rng
	rng *rand.Rand

	now    func() time.Time
	bus    bus.Bus
	logger logger.Logger
}

// NewRanker creates a ranker with default weights and a time-seeded
// discovery source.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{
		weights: DefaultWeights(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // discovery jitter, not security sensitive
		now:     time.Now,
		bus:     bus.Nop(),
		logger:  logger.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Weights returns the active coefficients.
func (r *Ranker) Weights() Weights { return r.weights }

// Base computes the deterministic part of the score: interest overlap,
// recency and popularity.
func (r *Ranker) Base(item model.ContentItem, interests map[string]float64) float64 {
	var overlap float64
	for _, tag := range item.Tags {
		overlap += interests[strings.ToLower(strings.TrimSpace(tag))]
	}

	ageHours := math.Max(0, r.now().Sub(item.PublishedAt).Hours())
	recency := math.Max(0, 1-ageHours/r.weights.DecayHours)

	return overlap*r.weights.Interest +
		recency*r.weights.Recency +
		item.Popularity*r.weights.Popularity
}

// Score returns Base plus a uniform [0, 1) draw times the discovery weight.
func (r *Ranker) Score(item model.ContentItem, interests map[string]float64) float64 {
	r.mu.Lock()
	u := r.rng.Float64()
	r.mu.Unlock()

	return r.Base(item, interests) + u*r.weights.Discovery
}

// ScoreFor scores item for a reader currently on currentID. An item is
// never recommended alongside itself: ErrUnrankable is returned instead.
func (r *Ranker) ScoreFor(item model.ContentItem, currentID string, interests map[string]float64) (float64, error) {
	if currentID != "" && item.ID == currentID {
		return 0, ErrUnrankable
	}
	return r.Score(item, interests), nil
}

// Recommend ranks pool for userID, skipping the item currently being read,
// and returns at most limit results (limit <= 0 means all). Equal scores
// keep pool order. The result is published as recommendations:ready.
func (r *Ranker) Recommend(ctx context.Context, userID string, pool []model.ContentItem, currentID string, interests map[string]float64, limit int) []Scored {
	start := time.Now()

	out := make([]Scored, 0, len(pool))
	for _, item := range pool {
		score, err := r.ScoreFor(item, currentID, interests)
		if err != nil {
			continue
		}
		out = append(out, Scored{Item: item, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	metrics.RecordRecommendations(float64(time.Since(start).Milliseconds()))
	r.logger.Debug(ctx, "recommendations ranked",
		logger.String("userID", userID),
		logger.Int("pool", len(pool)),
		logger.Int("returned", len(out)),
	)

	ids := make([]string, len(out))
	for i, s := range out {
		ids[i] = s.Item.ID
	}
	r.bus.Publish(ctx, model.TopicRecommendationsReady, model.Payload{
		"user_id":  userID,
		"item_ids": ids,
		"count":    len(ids),
	})

	return out
}
