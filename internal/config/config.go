// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Every component reads its own section; zero values never reach a
//     component because Load sanitizes each field against its default.
//   - Invalid values are replaced by defaults and reported in Config.Issues.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DedupeSize bounds the idempotency cache for interaction event ids.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	Interest     InterestConfig     `koanf:"interest"`
	Ranking      RankingConfig      `koanf:"ranking"`
	Gamification GamificationConfig `koanf:"gamification"`
	Leaderboard  LeaderboardConfig  `koanf:"leaderboard"`
	Bus          BusConfig          `koanf:"bus"`
	Storage      StorageConfig      `koanf:"storage"`
	Scheduler    SchedulerConfig    `koanf:"scheduler"`

	// Issues lists every value that was rejected and replaced by its default.
	Issues []string `koanf:"-"`
}

// InterestConfig tunes the interest scorer.
type InterestConfig struct {
	// Weights maps interaction types to boost amounts.
	Weights     map[string]float64 `koanf:"weights"`
	DecayRate   float64            `koanf:"decay_rate"`
	HistorySize int                `koanf:"history_size"`
}

// RankingConfig tunes the recommendation formula.
type RankingConfig struct {
	Interest   float64 `koanf:"interest"`
	Recency    float64 `koanf:"recency"`
	Popularity float64 `koanf:"popularity"`
	Discovery  float64 `koanf:"discovery"`
	DecayHours float64 `koanf:"decay_hours"`
}

// GamificationConfig tunes the level curve and badge catalog.
type GamificationConfig struct {
	XPBase       float64 `koanf:"xp_base"`
	XPMultiplier float64 `koanf:"xp_multiplier"`

	// MaxGrant is the largest xp amount a single grant may carry.
	MaxGrant float64       `koanf:"max_grant"`
	Badges   []BadgeConfig `koanf:"badges"`
}

// BadgeConfig declares one badge. An empty list keeps the stock catalog.
type BadgeConfig struct {
	ID        string  `koanf:"id"`
	Name      string  `koanf:"name"`
	Action    string  `koanf:"action"`
	Threshold int     `koanf:"threshold"`
	XPReward  float64 `koanf:"xp_reward"`
}

// LeaderboardConfig bounds the boards.
type LeaderboardConfig struct {
	MaxSize int `koanf:"max_size"`
}

// Bus modes.
const (
	BusSync  = "sync"
	BusAsync = "async"
)

// BusConfig selects and sizes the event bus.
type BusConfig struct {
	// Mode is "sync" (inline delivery) or "async" (sharded queues).
	Mode          string `koanf:"mode"`
	Shards        int    `koanf:"shards"`
	QueueCapacity int    `koanf:"queue_capacity"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `koanf:"driver"`
	// Path is the SQLite database file.
	Path string `koanf:"path"`
}

// SchedulerConfig holds cron specs for periodic jobs. An empty spec disables
// its job.
type SchedulerConfig struct {
	Enabled     bool   `koanf:"enabled"`
	DecaySweep  string `koanf:"decay_sweep"`
	DailyReset  string `koanf:"daily_reset"`
	WeeklyReset string `koanf:"weekly_reset"`
}

// New creates a Config holding every default.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		DedupeSize:          50_000,
		MaxLeaderboardLimit: 100,
		Interest: InterestConfig{
			Weights:     defaultWeights(),
			DecayRate:   0.98,
			HistorySize: 100,
		},
		Ranking: RankingConfig{
			Interest:   5,
			Recency:    2,
			Popularity: 1,
			Discovery:  0.5,
			DecayHours: 48,
		},
		Gamification: GamificationConfig{
			XPBase:       100,
			XPMultiplier: 1.5,
			MaxGrant:     100_000,
		},
		Leaderboard: LeaderboardConfig{MaxSize: 100},
		Bus: BusConfig{
			Mode:          BusAsync,
			Shards:        4,
			QueueCapacity: 1024,
		},
		Storage: StorageConfig{
			Driver: "memory",
			Path:   "sportiq.db",
		},
		Scheduler: SchedulerConfig{
			Enabled:     true,
			DecaySweep:  "@every 1h",
			DailyReset:  "0 0 * * *",
			WeeklyReset: "0 0 * * 1",
		},
	}
}

func defaultWeights() map[string]float64 {
	return map[string]float64{
		"view":          1,
		"click":         3,
		"share":         10,
		"search":        5,
		"complete_read": 8,
	}
}
