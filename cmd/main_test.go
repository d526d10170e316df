package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/sportiq/internal/adapters/storage"
	service "github.com/okian/sportiq/internal/app"
	"github.com/okian/sportiq/internal/config"
	"github.com/okian/sportiq/pkg/logger"
)

func startService(ctx context.Context) *service.Service {
	cfg := config.New()
	cfg.Bus.Mode = config.BusSync
	svc := service.New(
		service.WithConfig(cfg),
		service.WithStore(storage.NewMemory()),
		service.WithLogger(logger.Nop()),
	)
	convey.So(svc.Start(ctx), convey.ShouldBeNil)
	return svc
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("SPORTIQ_ADDR", ":8080")
		_ = os.Setenv("SPORTIQ_BUS__SHARDS", "8")
		_ = os.Setenv("SPORTIQ_SCHEDULER__ENABLED", "false")
		defer func() {
			_ = os.Unsetenv("SPORTIQ_ADDR")
			_ = os.Unsetenv("SPORTIQ_BUS__SHARDS")
			_ = os.Unsetenv("SPORTIQ_SCHEDULER__ENABLED")
		}()

		convey.Convey("When configuration is loaded", func() {
			cfg, err := config.Load(context.Background())

			convey.Convey("Then the overrides should apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Bus.Shards, convey.ShouldEqual, 8)
				convey.So(cfg.Scheduler.Enabled, convey.ShouldBeFalse)
			})
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		_ = os.Setenv("SPORTIQ_ADDR", " ")
		defer func() { _ = os.Unsetenv("SPORTIQ_ADDR") }()

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMainHandler(t *testing.T) {
	convey.Convey("Given the process handler", t, func() {
		ctx := context.Background()
		svc := startService(ctx)
		defer func() { convey.So(svc.Stop(ctx), convey.ShouldBeNil) }()
		h := newHandler(ctx, svc, logger.Nop())

		convey.Convey("Then business and document routes should both be served", func() {
			for _, path := range []string{"/healthz", "/stats", "/openapi.yaml", "/api-docs", "/leaderboard"} {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("And the server should carry the timeouts", func() {
			srv := newHTTPServer(":0", h)
			convey.So(srv.ReadTimeout, convey.ShouldEqual, readTimeout)
			convey.So(srv.WriteTimeout, convey.ShouldEqual, writeTimeout)
			convey.So(srv.IdleTimeout, convey.ShouldEqual, idleTimeout)
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
		})
	})
}

func TestMainMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		ctx := context.Background()
		svc := startService(ctx)
		defer func() { convey.So(svc.Stop(ctx), convey.ShouldBeNil) }()

		convey.Convey("Then single updates should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("And the loops should return once ctx is done", func() {
			loopCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(loopCtx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(loopCtx, svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMainRun(t *testing.T) {
	convey.Convey("Given a configuration on a free port", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.Bus.Mode = config.BusSync
		cfg.Scheduler.Enabled = false

		convey.Convey("When the context is canceled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			convey.Convey("Then run should shut down cleanly", func() {
				convey.So(run(ctx, cfg, logger.Nop()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the address cannot be bound", func() {
			cfg.Addr = "256.0.0.1:bad"

			convey.Convey("Then run should report the listener error", func() {
				convey.So(run(context.Background(), cfg, logger.Nop()), convey.ShouldNotBeNil)
			})
		})
	})
}
