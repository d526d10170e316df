// Package simulate drives synthetic fan traffic against a running SportIQ
// service over its HTTP API and checks what comes back.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/sportiq/internal/adapters/repository"
	"github.com/okian/sportiq/internal/domain/types"
	"github.com/okian/sportiq/pkg/logger"
)

const (
	settlePoll     = 100 * time.Millisecond
	reportInterval = time.Second
)

// counters is updated by concurrent senders.
type counters struct {
	submitted  atomic.Int64
	accepted   atomic.Int64
	duplicates atomic.Int64
	signals    atomic.Int64
	throttled  atomic.Int64
	failed     atomic.Int64
}

type ack struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type leaderboard struct {
	Board   string             `json:"board"`
	Entries []repository.Entry `json:"entries"`
}

type scoredItem struct {
	Score float64 `json:"score"`
}

type recommendations struct {
	Items []scoredItem `json:"items"`
}

// Run executes a full simulation: health check, catalog seeding, traffic,
// settling and read-back verification.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg.withDefaults()
	log := logger.Get().Named("simulate")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("fans", cfg.Fans),
		logger.Int("events", cfg.Events),
		logger.Int("items", cfg.Items),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", cfg.Seed),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout, cfg.Retries)
	if err := checkHealth(ctx, c); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	gen := NewGenerator(cfg)
	if err := publishContent(ctx, c, gen, stats); err != nil {
		return stats, fmt.Errorf("content publishing failed: %w", err)
	}

	var cnt counters
	if err := sendActions(ctx, cfg, c, gen.Actions(cfg.Events), &cnt, log); err != nil {
		return stats, fmt.Errorf("traffic failed: %w", err)
	}
	stats.Submitted = int(cnt.submitted.Load())
	stats.Accepted = int(cnt.accepted.Load())
	stats.Duplicates = int(cnt.duplicates.Load())
	stats.Signals = int(cnt.signals.Load())
	stats.Throttled = int(cnt.throttled.Load())
	stats.Failed = int(cnt.failed.Load())

	if err := settle(ctx, c, cfg.Settle); err != nil {
		log.Warn(ctx, "bus did not drain in time", logger.Duration("settle", cfg.Settle), logger.Error(err))
	}

	board, err := fetchLeaderboard(ctx, c, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardSize = len(board)
	if err := verifyLeaderboard(board); err != nil {
		return stats, fmt.Errorf("leaderboard verification failed: %w", err)
	}

	if err := sampleFans(ctx, c, gen.Fans(), cfg.Samples, board, stats); err != nil {
		return stats, fmt.Errorf("read-back failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func checkHealth(ctx context.Context, c *client) error {
	status, err := c.get(ctx, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}

func publishContent(ctx context.Context, c *client, gen *Generator, stats *Stats) error {
	for _, item := range gen.Content() {
		status, _, err := c.post(ctx, "/content", item, nil)
		if err != nil {
			return err
		}
		if status != http.StatusAccepted {
			return fmt.Errorf("content %s: unexpected status %d", item.ID, status)
		}
		stats.ContentPublished++
	}
	return nil
}

// sendActions posts actions with at most cfg.Workers requests in flight.
// Transport failures count as failed requests and never abort the run; only
// cancellation of ctx does.
func sendActions(ctx context.Context, cfg Config, c *client, actions []Action, cnt *counters, log logger.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	done := make(chan struct{})
	go func() {
		t := time.NewTicker(reportInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				log.Info(ctx, "progress",
					logger.Int64("submitted", cnt.submitted.Load()),
					logger.Int("total", len(actions)),
					logger.Int64("failed", cnt.failed.Load()),
				)
			}
		}
	}()
	defer close(done)

	for _, a := range actions {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			sendOne(gctx, c, a, cnt, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func sendOne(ctx context.Context, c *client, a Action, cnt *counters, log logger.Logger) {
	var (
		resp      ack
		status    int
		throttled int
		err       error
	)
	if a.IsSignal() {
		body := struct {
			UserID   string `json:"user_id"`
			Metadata any    `json:"metadata"`
		}{a.Submission.UserID, a.Submission.Metadata}
		status, throttled, err = c.post(ctx, "/signals/"+url.PathEscape(a.Topic), body, &resp)
	} else {
		status, throttled, err = c.post(ctx, "/interactions", a.Submission, &resp)
	}
	cnt.submitted.Add(1)
	cnt.throttled.Add(int64(throttled))

	switch {
	case err != nil:
		cnt.failed.Add(1)
		if !errors.Is(err, context.Canceled) {
			log.Debug(ctx, "request failed", logger.String("userID", a.Submission.UserID), logger.Error(err))
		}
	case status == http.StatusAccepted && a.IsSignal():
		cnt.signals.Add(1)
	case status == http.StatusAccepted:
		cnt.accepted.Add(1)
	case status == http.StatusOK && resp.Duplicate:
		cnt.duplicates.Add(1)
	default:
		cnt.failed.Add(1)
		log.Debug(ctx, "request rejected", logger.String("userID", a.Submission.UserID), logger.Int("status", status))
	}
}

// settle waits until the service reports an empty bus or wait elapses.
func settle(ctx context.Context, c *client, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		var st types.Stats
		if _, err := c.get(ctx, "/stats", &st); err != nil {
			return err
		}
		if st.Pending == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%d events still pending", st.Pending)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settlePoll):
		}
	}
}

func fetchLeaderboard(ctx context.Context, c *client, n int) ([]repository.Entry, error) {
	var lb leaderboard
	status, err := c.get(ctx, fmt.Sprintf("/leaderboard?board=%s&limit=%d", repository.BoardAllTime, n), &lb)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", status)
	}
	return lb.Entries, nil
}

// sampleFans reads back recommendations and ranks for the first n fans.
func sampleFans(ctx context.Context, c *client, fans []Fan, n int, board []repository.Entry, stats *Stats) error {
	if n > len(fans) {
		n = len(fans)
	}
	for _, f := range fans[:n] {
		var recs recommendations
		status, err := c.get(ctx, "/recommendations/"+url.PathEscape(f.ID)+"?limit=5", &recs)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("recommendations for %s: unexpected status %d", f.ID, status)
		}
		if err := verifyRecommendations(f.ID, recs); err != nil {
			return err
		}
		stats.Recommendations++

		var entry repository.Entry
		status, err = c.get(ctx, "/rank/"+url.PathEscape(f.ID), &entry)
		if err != nil {
			return err
		}
		switch status {
		case http.StatusNotFound:
			continue
		case http.StatusOK:
		default:
			return fmt.Errorf("rank for %s: unexpected status %d", f.ID, status)
		}
		if err := verifyRank(entry, board); err != nil {
			return err
		}
		stats.RanksChecked++
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("contentPublished", stats.ContentPublished),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("signals", stats.Signals),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed),
		logger.Int("recommendations", stats.Recommendations),
		logger.Int("ranksChecked", stats.RanksChecked),
		logger.Int("leaderboardSize", stats.LeaderboardSize),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", perSecond),
	)
}
