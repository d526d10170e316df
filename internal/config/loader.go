package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// Environment variables read by Load.
const (
	EnvPrefix = "SPORTIQ_"
	EnvFile   = "SPORTIQ_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML, JSON also parses) if SPORTIQ_CONFIG is set
//  3. env (prefix SPORTIQ_, "__" separates sections:
//     SPORTIQ_BUS__MODE -> bus.mode)
//
// Unreadable sources fail the load. Values of the wrong type and readable
// but invalid values are reset to their defaults and listed in
// Config.Issues.
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigSource, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrConfigSource, err)
	}

	dropped := dropUndecodable(k)
	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigSource, err)
	}
	cfg.Issues = append(cfg.Issues, dropped...)

	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}

	cfg.Sanitize()
	return cfg, nil
}

var unmarshalConf = koanf.UnmarshalConf{Tag: "koanf"}

// dropUndecodable removes every key whose value cannot be decoded into its
// field, so the default survives, and returns one issue per removed key.
// Each key is tried alone against a fresh default Config.
func dropUndecodable(k *koanf.Koanf) []string {
	if err := k.UnmarshalWithConf("", New(), unmarshalConf); err == nil {
		return nil
	}

	var issues []string
	for _, key := range k.Keys() {
		single := koanf.New(".")
		if err := single.Set(key, k.Get(key)); err != nil {
			continue
		}
		if err := single.UnmarshalWithConf("", New(), unmarshalConf); err != nil {
			issues = append(issues, fmt.Sprintf("%s: %v cannot be decoded, using the default", key, k.Get(key)))
			k.Delete(key)
		}
	}
	return issues
}

// Sanitize resets every invalid field to its default and records an issue
// for it. It is idempotent.
func (c *Config) Sanitize() {
	d := New()
	s := sanitizer{cfg: c}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		s.reset("log_level", c.LogLevel, &c.LogLevel, d.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		s.reset("log_format", c.LogFormat, &c.LogFormat, d.LogFormat)
	}
	s.positiveInt("dedupe_size", &c.DedupeSize, d.DedupeSize)
	s.positiveInt("max_leaderboard_limit", &c.MaxLeaderboardLimit, d.MaxLeaderboardLimit)

	// interest
	weights := defaultWeights()
	for kind, w := range c.Interest.Weights {
		if _, known := weights[kind]; !known {
			s.issue("interest.weights.%s: unknown interaction type, ignored", kind)
			continue
		}
		if w < 0 || !finite(w) {
			s.issue("interest.weights.%s: %v is invalid, using %v", kind, w, weights[kind])
			continue
		}
		weights[kind] = w
	}
	c.Interest.Weights = weights
	if r := c.Interest.DecayRate; r <= 0 || r > 1 || !finite(r) {
		s.issue("interest.decay_rate: %v is outside (0, 1], using %v", r, d.Interest.DecayRate)
		c.Interest.DecayRate = d.Interest.DecayRate
	}
	s.positiveInt("interest.history_size", &c.Interest.HistorySize, d.Interest.HistorySize)

	// ranking
	s.nonNegative("ranking.interest", &c.Ranking.Interest, d.Ranking.Interest)
	s.nonNegative("ranking.recency", &c.Ranking.Recency, d.Ranking.Recency)
	s.nonNegative("ranking.popularity", &c.Ranking.Popularity, d.Ranking.Popularity)
	s.nonNegative("ranking.discovery", &c.Ranking.Discovery, d.Ranking.Discovery)
	s.positive("ranking.decay_hours", &c.Ranking.DecayHours, d.Ranking.DecayHours)

	// gamification
	s.positive("gamification.xp_base", &c.Gamification.XPBase, d.Gamification.XPBase)
	s.positive("gamification.xp_multiplier", &c.Gamification.XPMultiplier, d.Gamification.XPMultiplier)
	s.positive("gamification.max_grant", &c.Gamification.MaxGrant, d.Gamification.MaxGrant)
	badges := c.Gamification.Badges[:0:0]
	for i, b := range c.Gamification.Badges {
		if b.ID == "" || strings.TrimSpace(b.Action) == "" || b.Threshold <= 0 || b.XPReward < 0 {
			s.issue("gamification.badges[%d]: incomplete badge %q dropped", i, b.ID)
			continue
		}
		if b.XPReward > c.Gamification.MaxGrant || !finite(b.XPReward) {
			s.issue("gamification.badges[%d]: xp_reward %v exceeds max_grant, badge %q dropped", i, b.XPReward, b.ID)
			continue
		}
		badges = append(badges, b)
	}
	c.Gamification.Badges = badges

	// leaderboard
	s.positiveInt("leaderboard.max_size", &c.Leaderboard.MaxSize, d.Leaderboard.MaxSize)

	// bus
	switch c.Bus.Mode {
	case BusSync, BusAsync:
	default:
		s.reset("bus.mode", c.Bus.Mode, &c.Bus.Mode, d.Bus.Mode)
	}
	s.positiveInt("bus.shards", &c.Bus.Shards, d.Bus.Shards)
	s.positiveInt("bus.queue_capacity", &c.Bus.QueueCapacity, d.Bus.QueueCapacity)

	// storage
	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.Storage.Path) == "" {
			s.reset("storage.path", c.Storage.Path, &c.Storage.Path, d.Storage.Path)
		}
	default:
		s.reset("storage.driver", c.Storage.Driver, &c.Storage.Driver, d.Storage.Driver)
	}

	// scheduler
	s.cronSpec("scheduler.decay_sweep", &c.Scheduler.DecaySweep, d.Scheduler.DecaySweep)
	s.cronSpec("scheduler.daily_reset", &c.Scheduler.DailyReset, d.Scheduler.DailyReset)
	s.cronSpec("scheduler.weekly_reset", &c.Scheduler.WeeklyReset, d.Scheduler.WeeklyReset)
}

type sanitizer struct {
	cfg  *Config
	seen map[string]bool
}

func (s *sanitizer) issue(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.seen == nil {
		s.seen = make(map[string]bool, len(s.cfg.Issues))
		for _, i := range s.cfg.Issues {
			s.seen[i] = true
		}
	}
	if s.seen[msg] {
		return
	}
	s.seen[msg] = true
	s.cfg.Issues = append(s.cfg.Issues, msg)
}

func (s *sanitizer) reset(key, got string, field *string, def string) {
	s.issue("%s: %q is invalid, using %q", key, got, def)
	*field = def
}

func (s *sanitizer) positiveInt(key string, field *int, def int) {
	if *field <= 0 {
		s.issue("%s: %d is invalid, using %d", key, *field, def)
		*field = def
	}
}

func (s *sanitizer) positive(key string, field *float64, def float64) {
	if *field <= 0 || !finite(*field) {
		s.issue("%s: %v is invalid, using %v", key, *field, def)
		*field = def
	}
}

func (s *sanitizer) nonNegative(key string, field *float64, def float64) {
	if *field < 0 || !finite(*field) {
		s.issue("%s: %v is invalid, using %v", key, *field, def)
		*field = def
	}
}

func (s *sanitizer) cronSpec(key string, field *string, def string) {
	if *field == "" {
		return
	}
	if _, err := cron.ParseStandard(*field); err != nil {
		s.issue("%s: %q is invalid (%v), using %q", key, *field, err, def)
		*field = def
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
