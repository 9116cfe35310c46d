// Package metrics exposes prometheus instrumentation for the sync engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// NewRegistry creates a registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}
	r.initSyncMetrics()
	r.initGraphMetrics()
	r.initCaptureMetrics()
	return r
}

// Handler returns an HTTP handler serving this registry
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordLoad records one full load pipeline run
func (r *Registry) RecordLoad(status string, duration time.Duration, nodes, edges int) {
	r.LoadsTotal.WithLabelValues(status).Inc()
	r.LoadDuration.Observe(duration.Seconds())
	if status == StatusOK {
		r.GraphNodesTotal.Set(float64(nodes))
		r.GraphEdgesTotal.Set(float64(edges))
	}
}

// RecordPush records one push channel message by envelope type
func (r *Registry) RecordPush(msgType string) {
	r.PushesTotal.WithLabelValues(msgType).Inc()
}

// RecordReconnect records one scheduled reconnect attempt
func (r *Registry) RecordReconnect() {
	r.ReconnectsTotal.Inc()
}

// SetChannelConnected flips the channel-connected gauge
func (r *Registry) SetChannelConnected(connected bool) {
	if connected {
		r.ChannelConnected.Set(1)
	} else {
		r.ChannelConnected.Set(0)
	}
}

// RecordLayout records one layout computation
func (r *Registry) RecordLayout() {
	r.LayoutRunsTotal.Inc()
}

// RecordDelete records one node delete request
func (r *Registry) RecordDelete(status string) {
	r.NodeDeletesTotal.WithLabelValues(status).Inc()
}

// RecordCapture records one capture request
func (r *Registry) RecordCapture(status string) {
	r.CapturesTotal.WithLabelValues(status).Inc()
}
