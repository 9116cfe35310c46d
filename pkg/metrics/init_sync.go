package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSyncMetrics() {
	r.LoadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explomap_loads_total",
			Help: "Total number of full graph loads",
		},
		[]string{"status"},
	)

	r.LoadDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "explomap_load_duration_seconds",
			Help:    "Full load pipeline latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.PushesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explomap_pushes_total",
			Help: "Push channel messages received, by envelope type",
		},
		[]string{"type"},
	)

	r.ReconnectsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "explomap_reconnects_total",
			Help: "Push channel reconnect attempts scheduled",
		},
	)

	r.ChannelConnected = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "explomap_channel_connected",
			Help: "Whether the push channel is currently open (1) or not (0)",
		},
	)
}
