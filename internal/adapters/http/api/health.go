package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/sportiq/internal/domain/types"
	"github.com/okian/sportiq/pkg/metrics"
)

// StatsProvider reports a point-in-time snapshot of the service.
type StatsProvider interface {
	GetStats(ctx context.Context) types.Stats
}

// HealthHandler serves the operational endpoints: liveness and stats.
type HealthHandler struct {
	metrics http.Handler
	stats   StatsProvider
}

func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
		stats:   stats,
	}
}

// HandleHealth serves the Prometheus registry on GET /healthz; a scrapeable
// registry doubles as the liveness signal.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// HandleStats serves GET /stats.
func (h *HealthHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.GetStats(r.Context()))
}
