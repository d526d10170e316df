package simulate

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/internal/domain/types"
)

// sports is the topic universe of the generated traffic.
var sports = []string{
	"football", "tennis", "basketball", "formula1",
	"cricket", "golf", "cycling", "rugby",
}

var sportCategory = map[string]string{
	"football":   "team",
	"basketball": "team",
	"cricket":    "team",
	"rugby":      "team",
	"tennis":     "individual",
	"golf":       "individual",
	"cycling":    "endurance",
	"formula1":   "motorsport",
}

// interactionMix is the relative frequency of each interaction type.
var interactionMix = []struct {
	kind   model.InteractionType
	weight int
}{
	{model.InteractionView, 40},
	{model.InteractionClick, 25},
	{model.InteractionCompleteRead, 15},
	{model.InteractionSearch, 10},
	{model.InteractionShare, 10},
}

var signalTopics = []string{model.TopicArticleView, model.TopicUIClick, model.TopicSearchQuery}

// favouriteBias is the chance a fan acts on one of their favourite sports.
const favouriteBias = 0.8

// Fan is a simulated user with a stable taste.
type Fan struct {
	ID         string
	Favourites []string
}

// Action is one request the simulator sends. Topic is set for signals only.
type Action struct {
	Submission types.Submission
	Topic      string
}

// IsSignal reports whether the action goes to /signals.
func (a Action) IsSignal() bool { return a.Topic != "" }

// Generator produces the same traffic shape for the same seed. Event ids
// are always fresh.
type Generator struct {
	rng   *rand.Rand
	now   time.Time
	cfg   Config
	fans  []Fan
	items []model.ContentItem
	sent  []types.Submission
}

// NewGenerator builds the fans and the content catalog for cfg.
func NewGenerator(cfg Config) *Generator {
	cfg.withDefaults()
	g := &Generator{
		rng: rand.New(rand.NewSource(cfg.Seed)),
		now: time.Now().UTC(),
		cfg: cfg,
	}

	g.fans = make([]Fan, cfg.Fans)
	for i := range g.fans {
		g.fans[i] = Fan{ID: fmt.Sprintf("fan-%03d", i+1), Favourites: g.pickSports(1 + g.rng.Intn(2))}
	}

	g.items = make([]model.ContentItem, cfg.Items)
	for i := range g.items {
		tags := g.pickSports(1 + g.rng.Intn(2))
		g.items[i] = model.ContentItem{
			ID:          fmt.Sprintf("item-%03d", i+1),
			Title:       fmt.Sprintf("%s story #%d", tags[0], i+1),
			Tags:        tags,
			Category:    sportCategory[tags[0]],
			PublishedAt: g.now.Add(-time.Duration(g.rng.Intn(96)) * time.Hour),
			Popularity:  float64(g.rng.Intn(101)) / 100,
		}
	}
	return g
}

// Fans returns the simulated fans.
func (g *Generator) Fans() []Fan { return g.fans }

// Content returns the catalog published before traffic starts.
func (g *Generator) Content() []model.ContentItem { return g.items }

// Actions returns n actions. Some interactions repeat an earlier event id
// so the service's replay detection is exercised.
func (g *Generator) Actions(n int) []Action {
	out := make([]Action, 0, n)
	for len(out) < n {
		if len(g.sent) > 0 && g.rng.Float64() < g.cfg.DuplicateRate {
			out = append(out, Action{Submission: g.sent[g.rng.Intn(len(g.sent))]})
			continue
		}

		fan := g.fans[g.rng.Intn(len(g.fans))]
		md := g.metadata(fan)
		if g.rng.Float64() < g.cfg.SignalRate {
			out = append(out, Action{
				Topic:      signalTopics[g.rng.Intn(len(signalTopics))],
				Submission: types.Submission{UserID: fan.ID, Metadata: md},
			})
			continue
		}

		sub := types.Submission{
			EventID:  uuid.NewString(),
			UserID:   fan.ID,
			Type:     g.interaction(),
			Metadata: md,
		}
		g.sent = append(g.sent, sub)
		out = append(out, Action{Submission: sub})
	}
	return out
}

func (g *Generator) metadata(f Fan) model.Metadata {
	sport := sports[g.rng.Intn(len(sports))]
	if len(f.Favourites) > 0 && g.rng.Float64() < favouriteBias {
		sport = f.Favourites[g.rng.Intn(len(f.Favourites))]
	}
	md := model.Metadata{Tags: []string{sport}, Category: sportCategory[sport]}
	for _, i := range g.rng.Perm(len(g.items)) {
		if hasTag(g.items[i], sport) {
			md.ItemID = g.items[i].ID
			break
		}
	}
	return md
}

func (g *Generator) interaction() model.InteractionType {
	total := 0
	for _, m := range interactionMix {
		total += m.weight
	}
	n := g.rng.Intn(total)
	for _, m := range interactionMix {
		if n < m.weight {
			return m.kind
		}
		n -= m.weight
	}
	return model.InteractionView
}

// pickSports returns n distinct sports.
func (g *Generator) pickSports(n int) []string {
	perm := g.rng.Perm(len(sports))
	out := make([]string, 0, n)
	for _, i := range perm[:n] {
		out = append(out, sports[i])
	}
	return out
}

func hasTag(item model.ContentItem, tag string) bool {
	for _, t := range item.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
