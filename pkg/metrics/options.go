package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option tunes a Manager before its collectors are registered.
type Option func(*Manager)

// WithNamespace overrides the "sportiq" metric prefix. Empty is ignored.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem overrides the "engagement" subsystem. Empty is ignored.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets replaces the buckets used by the latency histograms
// that do not declare their own.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = append([]float64(nil), buckets...)
		}
	}
}

// WithConstLabel attaches a constant label, such as a deployment name, to
// every collector. Repeated keys keep the last value.
func WithConstLabel(key, value string) Option {
	return func(m *Manager) {
		if key == "" {
			return
		}
		if m.customLabels == nil {
			m.customLabels = prometheus.Labels{}
		}
		m.customLabels[key] = value
	}
}

// WithPrometheusRegistry registers collectors on r instead of the default
// registerer. Tests use a fresh registry per manager.
func WithPrometheusRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}
