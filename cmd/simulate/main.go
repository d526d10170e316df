// Command simulate sends synthetic fan traffic to a SportIQ service.
//
// Usage:
//
//	go run ./cmd/simulate -url http://localhost:9080 -fans 100 -events 20000
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/sportiq/internal/simulate"
	"github.com/okian/sportiq/pkg/logger"
)

// Default configuration constants.
const (
	defaultFans       = 50
	defaultEvents     = 5000
	defaultItems      = 40
	defaultTopN       = 20
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 10 * time.Second
	defaultSettle     = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		fans       = flag.Int("fans", defaultFans, "Number of distinct fans")
		events     = flag.Int("events", defaultEvents, "Number of interactions and signals to send")
		items      = flag.Int("items", defaultItems, "Number of content items to publish first")
		topN       = flag.Int("top", defaultTopN, "Number of leaderboard entries to verify")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent requests")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", defaultSettle, "Maximum wait for the event bus to drain")
		seed       = flag.Int64("seed", 0, "Traffic seed (0 picks one from the clock)")
		duplicates = flag.Float64("duplicates", 0.02, "Share of interactions re-sent with a known event id")
		signals    = flag.Float64("signals", 0.2, "Share of actions sent as page signals")
		samples    = flag.Int("samples", 5, "Fans whose recommendations and rank are read back")
		logFile    = flag.String("log", "", "Log file (default: simulate_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	closeLog, err := simulate.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)

	_, err = simulate.Run(ctx, simulate.Config{
		BaseURL:       *baseURL,
		Fans:          *fans,
		Events:        *events,
		Items:         *items,
		TopN:          *topN,
		Workers:       *workers,
		Timeout:       *timeout,
		Settle:        *settle,
		Seed:          *seed,
		DuplicateRate: *duplicates,
		SignalRate:    *signals,
		Samples:       *samples,
	})
	cancel()
	stop()
	if err != nil {
		logger.Get().Error(context.Background(), "simulation failed", logger.Error(err))
	}
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}
