package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "explomap_graph_nodes",
			Help: "Nodes in the current graph",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "explomap_graph_edges",
			Help: "Edges in the current graph",
		},
	)

	r.LayoutRunsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "explomap_layout_runs_total",
			Help: "Layout computations performed",
		},
	)

	r.NodeDeletesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explomap_node_deletes_total",
			Help: "Node delete requests, by outcome",
		},
		[]string{"status"},
	)
}

func (r *Registry) initCaptureMetrics() {
	r.CapturesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explomap_captures_total",
			Help: "Capture requests issued, by outcome",
		},
		[]string{"status"},
	)
}
