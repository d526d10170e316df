package simulate_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/sportiq/internal/adapters/http/api"
	"github.com/okian/sportiq/internal/adapters/storage"
	service "github.com/okian/sportiq/internal/app"
	"github.com/okian/sportiq/internal/config"
	"github.com/okian/sportiq/internal/simulate"
	"github.com/okian/sportiq/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service behind a test HTTP server", t, func() {
		cfg := config.New()
		cfg.Bus.Mode = config.BusSync
		svc := service.New(
			service.WithConfig(cfg),
			service.WithStore(storage.NewMemory()),
			service.WithLogger(logger.Nop()),
		)
		So(svc.Start(ctx), ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer func() {
			srv.Close()
			So(svc.Stop(ctx), ShouldBeNil)
		}()

		Convey("When a small simulation runs", func() {
			stats, err := simulate.Run(ctx, simulate.Config{
				BaseURL:       srv.URL,
				Fans:          8,
				Events:        300,
				Items:         10,
				TopN:          5,
				Workers:       4,
				Timeout:       5 * time.Second,
				Seed:          7,
				DuplicateRate: 0.05,
				SignalRate:    0.2,
				Samples:       3,
			})

			Convey("Then every request should be accounted for", func() {
				So(err, ShouldBeNil)
				So(stats.ContentPublished, ShouldEqual, 10)
				So(stats.Submitted, ShouldEqual, 300)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Accepted+stats.Duplicates+stats.Signals, ShouldEqual, 300)
				So(stats.Duplicates, ShouldBeGreaterThan, 0)
			})

			Convey("And the read-back should have run", func() {
				So(stats.LeaderboardSize, ShouldEqual, 5)
				So(stats.Recommendations, ShouldEqual, 3)
				So(len(svc.Content(ctx)), ShouldEqual, 10)
			})
		})
	})

	Convey("Given no service listening", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		Convey("Then the run should fail on the health check", func() {
			_, err := simulate.Run(ctx, simulate.Config{BaseURL: srv.URL, Timeout: time.Second})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}
