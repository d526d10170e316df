package simulate

import (
	"runtime"
	"time"
)

// Default configuration constants.
const (
	defaultFans          = 50
	defaultEvents        = 5000
	defaultItems         = 40
	defaultTopN          = 20
	defaultTimeout       = 10 * time.Second
	defaultSettle        = 30 * time.Second
	defaultRetries       = 3
	defaultDuplicateRate = 0.02
	defaultSignalRate    = 0.2
	defaultSamples       = 5
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL string        // Base URL of the service
	Fans    int           // Distinct fans generating traffic
	Events  int           // Interactions and signals to send
	Items   int           // Content items published before traffic starts
	TopN    int           // Leaderboard entries fetched at the end
	Workers int           // Concurrent requests in flight
	Timeout time.Duration // HTTP request timeout
	Settle  time.Duration // How long to wait for the bus to drain
	Retries int           // Attempts per request answered with 429
	Seed    int64         // Seed for the traffic generator; 0 picks one from the clock

	// DuplicateRate is the share of interactions re-sent with a known event id.
	DuplicateRate float64
	// SignalRate is the share of actions sent as page-level signals.
	SignalRate float64
	// Samples is the number of fans whose recommendations and rank are read back.
	Samples int
}

func (c *Config) withDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:9080"
	}
	if c.Fans <= 0 {
		c.Fans = defaultFans
	}
	if c.Events < 0 {
		c.Events = defaultEvents
	}
	if c.Items < 0 {
		c.Items = defaultItems
	}
	if c.TopN <= 0 {
		c.TopN = defaultTopN
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU() * 2
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Settle < 0 {
		c.Settle = defaultSettle
	}
	if c.Retries <= 0 {
		c.Retries = defaultRetries
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	if c.DuplicateRate < 0 || c.DuplicateRate >= 1 {
		c.DuplicateRate = defaultDuplicateRate
	}
	if c.SignalRate < 0 || c.SignalRate >= 1 {
		c.SignalRate = defaultSignalRate
	}
	if c.Samples < 0 {
		c.Samples = defaultSamples
	}
}

// Stats summarizes a run.
type Stats struct {
	ContentPublished int
	Submitted        int
	Accepted         int
	Duplicates       int
	Signals          int
	Throttled        int
	Failed           int
	Recommendations  int
	RanksChecked     int
	LeaderboardSize  int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
