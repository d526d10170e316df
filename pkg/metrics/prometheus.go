// Package metrics provides Prometheus metrics for the SportIQ engagement service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the SportIQ service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     prometheus.Labels
	registry         prometheus.Registerer

	// Bus Metrics
	busPublished     *prometheus.CounterVec
	busDelivered     *prometheus.CounterVec
	busDropped       *prometheus.CounterVec
	busHandlerPanics *prometheus.CounterVec
	busSubscribers   prometheus.Gauge

	// Engagement Metrics
	interactionsTracked *prometheus.CounterVec
	duplicates          prometheus.Counter
	decayRuns           prometheus.Counter
	decayPruned         prometheus.Counter
	activeProfiles      prometheus.Gauge

	// Gamification Metrics
	xpGranted       prometheus.Counter
	levelUps        prometheus.Counter
	badgesUnlocked  *prometheus.CounterVec
	recommendations prometheus.Counter
	recommendLat    prometheus.Histogram
	catalogSize     prometheus.Gauge

	// Leaderboard Metrics
	leaderboardUpdates *prometheus.CounterVec
	leaderboardSize    *prometheus.GaugeVec
	leaderboardResets  *prometheus.CounterVec

	// Storage Metrics
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	storeResets  *prometheus.CounterVec

	// Scheduler Metrics
	schedulerRuns    *prometheus.CounterVec
	schedulerLatency *prometheus.HistogramVec

	// Queue Metrics
	queueSize        *prometheus.GaugeVec
	queueCapacity    *prometheus.GaugeVec
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueEnqueueErrs prometheus.Counter

	// Worker Metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sportiq",
		subsystem:        "engagement",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.busPublished = m.counterVec("bus_published_total", "Events published on the bus by topic", "topic")
	m.busDelivered = m.counterVec("bus_delivered_total", "Handler invocations by topic", "topic")
	m.busDropped = m.counterVec("bus_dropped_total", "Events dropped before delivery by topic and reason", "topic", "reason")
	m.busHandlerPanics = m.counterVec("bus_handler_panics_total", "Recovered handler panics by topic", "topic")
	m.busSubscribers = m.gauge("bus_subscribers", "Registered bus handlers")

	m.interactionsTracked = m.counterVec("interactions_tracked_total", "Fan interactions folded into interest vectors", "type")
	m.duplicates = m.counter("interactions_duplicate_total", "Interactions skipped because their event id was already seen")
	m.decayRuns = m.counter("decay_runs_total", "Interest decay passes that changed a profile")
	m.decayPruned = m.counter("decay_pruned_total", "Interest entries removed after falling under the floor")
	m.activeProfiles = m.gauge("active_profiles", "Profiles held in memory")

	m.xpGranted = m.counter("xp_granted_total", "Total experience points granted")
	m.levelUps = m.counter("level_ups_total", "Level-ups across all fans")
	m.badgesUnlocked = m.counterVec("badges_unlocked_total", "Badge unlocks by badge id", "badge")
	m.recommendations = m.counter("recommendations_served_total", "Recommendation lists produced")
	m.recommendLat = m.histogram("recommendation_latency_milliseconds", "Time to score and sort a content pool")
	m.catalogSize = m.gauge("catalog_size", "Content items available for recommendation")

	m.leaderboardUpdates = m.counterVec("leaderboard_updates_total", "Leaderboard upserts by board", "board")
	m.leaderboardSize = m.gaugeVec("leaderboard_size", "Entries per board", "board")
	m.leaderboardResets = m.counterVec("leaderboard_resets_total", "Board resets by board", "board")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "KV store operation latency", "backend", "op")
	m.storeErrors = m.counterVec("store_errors_total", "KV store failures", "backend", "op")
	m.storeResets = m.counterVec("state_resets_total", "Persisted blobs reset after failing to decode", "kind")

	m.schedulerRuns = m.counterVec("scheduler_runs_total", "Scheduled job runs by job and outcome", "job", "status")
	m.schedulerLatency = m.histogramVec("scheduler_job_duration_milliseconds", "Scheduled job duration", "job")

	m.queueSize = m.gaugeVec("queue_size", "Events waiting in a bus shard", "shard")
	m.queueCapacity = m.gaugeVec("queue_capacity", "Capacity of a bus shard", "shard")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Events accepted by bus shards")
	m.queueDequeued = m.counter("queue_dequeued_total", "Events handed to dispatch workers")
	m.queueEnqueueErrs = m.counter("queue_enqueue_errors_total", "Rejected enqueues (full or closed)")

	m.workerActiveCount = m.gauge("worker_active_count", "Running dispatch workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time to fan one event out to its handlers")
	m.workerErrors = m.counter("worker_errors_total", "Dispatch failures")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// Bus Metrics Functions.

// RecordBusPublished counts one published event.
func RecordBusPublished(topic string) {
	globalManager.busPublished.WithLabelValues(topic).Inc()
}

// RecordBusDelivered counts one handler invocation.
func RecordBusDelivered(topic string) {
	globalManager.busDelivered.WithLabelValues(topic).Inc()
}

// RecordBusDropped counts an event that never reached its handlers.
func RecordBusDropped(topic, reason string) {
	globalManager.busDropped.WithLabelValues(topic, reason).Inc()
}

// RecordBusHandlerPanic counts a recovered handler panic.
func RecordBusHandlerPanic(topic string) {
	globalManager.busHandlerPanics.WithLabelValues(topic).Inc()
}

// UpdateBusSubscribers sets the number of registered handlers.
func UpdateBusSubscribers(count int) {
	globalManager.busSubscribers.Set(float64(count))
}

// Engagement Metrics Functions.

// RecordInteraction counts a tracked interaction by type.
func RecordInteraction(kind string) {
	globalManager.interactionsTracked.WithLabelValues(kind).Inc()
}

// RecordInteractionDuplicate counts an interaction rejected as a replay.
func RecordInteractionDuplicate() {
	globalManager.duplicates.Inc()
}

// RecordDecay counts a decay pass and the entries it pruned.
func RecordDecay(pruned int) {
	globalManager.decayRuns.Inc()
	globalManager.decayPruned.Add(float64(pruned))
}

// UpdateActiveProfiles sets the number of in-memory profiles.
func UpdateActiveProfiles(count int) {
	globalManager.activeProfiles.Set(float64(count))
}

// Gamification Metrics Functions.

// RecordXPGranted adds to the granted experience total.
func RecordXPGranted(amount float64) {
	globalManager.xpGranted.Add(amount)
}

// RecordLevelUp counts one level-up.
func RecordLevelUp() {
	globalManager.levelUps.Inc()
}

// RecordBadgeUnlocked counts a badge unlock.
func RecordBadgeUnlocked(badgeID string) {
	globalManager.badgesUnlocked.WithLabelValues(badgeID).Inc()
}

// RecordRecommendations counts one served recommendation list and its latency.
func RecordRecommendations(latencyMs float64) {
	globalManager.recommendations.Inc()
	globalManager.recommendLat.Observe(latencyMs)
}

// UpdateCatalogSize sets the content pool size.
func UpdateCatalogSize(count int) {
	globalManager.catalogSize.Set(float64(count))
}

// Leaderboard Metrics Functions.

// RecordLeaderboardUpdate counts an upsert on board.
func RecordLeaderboardUpdate(board string) {
	globalManager.leaderboardUpdates.WithLabelValues(board).Inc()
}

// UpdateLeaderboardSize sets the entry count of board.
func UpdateLeaderboardSize(board string, size int) {
	globalManager.leaderboardSize.WithLabelValues(board).Set(float64(size))
}

// RecordLeaderboardReset counts a reset of board.
func RecordLeaderboardReset(board string) {
	globalManager.leaderboardResets.WithLabelValues(board).Inc()
}

// Storage Metrics Functions.

// RecordStoreLatency observes a KV operation latency.
func RecordStoreLatency(backend, op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordStoreError counts a KV failure.
func RecordStoreError(backend, op string) {
	globalManager.storeErrors.WithLabelValues(backend, op).Inc()
}

// RecordStateReset counts a persisted blob discarded after a decode failure.
func RecordStateReset(kind string) {
	globalManager.storeResets.WithLabelValues(kind).Inc()
}

// Scheduler Metrics Functions.

// RecordSchedulerRun counts one run of job and observes its duration.
func RecordSchedulerRun(job, status string, latencyMs float64) {
	globalManager.schedulerRuns.WithLabelValues(job, status).Inc()
	globalManager.schedulerLatency.WithLabelValues(job).Observe(latencyMs)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the backlog of a shard.
func UpdateQueueSize(shard string, size int) {
	globalManager.queueSize.WithLabelValues(shard).Set(float64(size))
}

// UpdateQueueCapacity sets the capacity of a shard.
func UpdateQueueCapacity(shard string, capacity int) {
	globalManager.queueCapacity.WithLabelValues(shard).Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrs.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records the duration of an HTTP request.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
