// Package overlay derives ephemeral presentation state (search highlighting
// and ancestor-path highlighting) from the current graph. Overlays are
// computed read-only from a snapshot and are never written back into the
// structural model.
package overlay

import "github.com/explomap/explomap/pkg/graph"

// Opacity applied to dimmed nodes and edges
const DimOpacity = 0.25

// Border is the border state of a node card
type Border int

const (
	BorderNone Border = iota
	BorderSearchMatch
	BorderPath
)

// Stroke is the stroke state of an edge
type Stroke int

const (
	StrokeNeutral Stroke = iota
	StrokePath
)

// NodeStyle is the derived presentation of one node
type NodeStyle struct {
	Opacity float64
	Border  Border
}

// EdgeStyle is the derived presentation of one edge
type EdgeStyle struct {
	Opacity  float64
	Stroke   Stroke
	Animated bool
}

// Overlay maps node and edge ids to their derived styles. Every node and
// edge of the source graph has an entry.
type Overlay struct {
	Nodes map[string]NodeStyle
	Edges map[string]EdgeStyle
}

// Neutral returns the single defined reset state: full opacity, no border,
// neutral stroke, each edge's own animation flag. Clearing search and
// clearing a path highlight both go through here, so the two features
// compose without residual styling.
func Neutral(g *graph.Graph) *Overlay {
	o := &Overlay{
		Nodes: make(map[string]NodeStyle, len(g.Nodes)),
		Edges: make(map[string]EdgeStyle, len(g.Edges)),
	}
	for id := range g.Nodes {
		o.Nodes[id] = NodeStyle{Opacity: 1.0, Border: BorderNone}
	}
	for _, e := range g.Edges {
		o.Edges[e.ID] = EdgeStyle{Opacity: 1.0, Stroke: StrokeNeutral, Animated: e.Animated}
	}
	return o
}
