package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the sync engine
type Registry struct {
	// Sync metrics
	LoadsTotal       *prometheus.CounterVec
	LoadDuration     prometheus.Histogram
	PushesTotal      *prometheus.CounterVec
	ReconnectsTotal  prometheus.Counter
	ChannelConnected prometheus.Gauge

	// Graph metrics
	GraphNodesTotal  prometheus.Gauge
	GraphEdgesTotal  prometheus.Gauge
	LayoutRunsTotal  prometheus.Counter
	NodeDeletesTotal *prometheus.CounterVec

	// Capture metrics
	CapturesTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	registryOnce    sync.Once
)

// DefaultRegistry returns the process-wide registry
func DefaultRegistry() *Registry {
	registryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}
