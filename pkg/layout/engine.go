// Package layout computes automatic hierarchical placement for the screen
// map. Positions are recomputed only on explicit request (initial load or a
// manual reset), never implicitly on structural change.
package layout

import (
	"sort"

	"github.com/explomap/explomap/pkg/graph"
)

// Fixed logical box dimensions for a screen card
const (
	NodeWidth  = 220.0
	NodeHeight = 360.0
)

// Direction selects the layering axis
type Direction string

const (
	// DirectionVertical layers top-to-bottom
	DirectionVertical Direction = "TB"
	// DirectionHorizontal layers left-to-right
	DirectionHorizontal Direction = "LR"
)

// Config controls spacing; zero values fall back to defaults
type Config struct {
	Direction  Direction
	NodeWidth  float64
	NodeHeight float64
	RankGap    float64
	NodeGap    float64
}

// Engine computes layered layouts. It holds only configuration; every
// Compute call builds a fresh internal graph, so stale nodes or edges can
// never leak between invocations.
type Engine struct {
	config Config
}

// NewEngine creates a layout engine with defaults filled in
func NewEngine(config Config) *Engine {
	if config.Direction == "" {
		config.Direction = DirectionVertical
	}
	if config.NodeWidth == 0 {
		config.NodeWidth = NodeWidth
	}
	if config.NodeHeight == 0 {
		config.NodeHeight = NodeHeight
	}
	if config.RankGap == 0 {
		config.RankGap = 120
	}
	if config.NodeGap == 0 {
		config.NodeGap = 80
	}
	return &Engine{config: config}
}

// Compute returns a new top-left anchored position for every node in the
// graph. Identical node/edge input in identical order yields identical
// output across calls and across engine instances.
func (e *Engine) Compute(g *graph.Graph) map[string]graph.Position {
	positions := make(map[string]graph.Position, len(g.NodeOrder))
	if len(g.NodeOrder) == 0 {
		return positions
	}

	lg := newLayoutGraph(g)
	lg.assignRanks()
	lg.orderRanks()

	// The internal placement anchors each box at its center, so shift by
	// half the box to store top-left coordinates, matching the rendering
	// convention.
	w, h := e.config.NodeWidth, e.config.NodeHeight
	stepMain := h + e.config.RankGap
	stepCross := w + e.config.NodeGap
	if e.config.Direction == DirectionHorizontal {
		stepMain = w + e.config.RankGap
		stepCross = h + e.config.NodeGap
	}

	for _, n := range lg.nodes {
		main := float64(n.rank) * stepMain
		cross := float64(n.index) * stepCross
		var cx, cy float64
		if e.config.Direction == DirectionHorizontal {
			cx, cy = main+w/2, cross+h/2
		} else {
			cx, cy = cross+w/2, main+h/2
		}
		positions[n.id] = graph.Position{X: cx - w/2, Y: cy - h/2}
	}

	return positions
}

// layoutGraph is the per-call working structure
type layoutGraph struct {
	nodes []*layoutNode
	byID  map[string]*layoutNode
	edges [][2]*layoutNode // forward edges with back edges removed
}

type layoutNode struct {
	id    string
	order int // position in input order, tiebreaker
	rank  int
	index int // position within rank
	out   []*layoutNode
	in    []*layoutNode
}

func newLayoutGraph(g *graph.Graph) *layoutGraph {
	lg := &layoutGraph{byID: make(map[string]*layoutNode, len(g.NodeOrder))}
	for i, id := range g.NodeOrder {
		n := &layoutNode{id: id, order: i, rank: -1}
		lg.nodes = append(lg.nodes, n)
		lg.byID[id] = n
	}
	for _, e := range g.Edges {
		src, srcOK := lg.byID[e.Source]
		dst, dstOK := lg.byID[e.Target]
		if !srcOK || !dstOK || src == dst {
			continue
		}
		lg.edges = append(lg.edges, [2]*layoutNode{src, dst})
	}
	lg.breakCycles()
	for _, e := range lg.edges {
		e[0].out = append(e[0].out, e[1])
		e[1].in = append(e[1].in, e[0])
	}
	return lg
}

// breakCycles drops back edges found by a DFS in input order, leaving a DAG
// for rank assignment. Dropped edges still render; they just don't
// constrain layering.
func (lg *layoutGraph) breakCycles() {
	out := make(map[*layoutNode][]int)
	for i, e := range lg.edges {
		out[e[0]] = append(out[e[0]], i)
	}

	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[*layoutNode]int, len(lg.nodes))
	back := make(map[int]bool)

	var visit func(n *layoutNode)
	visit = func(n *layoutNode) {
		state[n] = onStack
		for _, ei := range out[n] {
			next := lg.edges[ei][1]
			switch state[next] {
			case onStack:
				back[ei] = true
			case unvisited:
				visit(next)
			}
		}
		state[n] = done
	}
	for _, n := range lg.nodes {
		if state[n] == unvisited {
			visit(n)
		}
	}

	if len(back) == 0 {
		return
	}
	kept := lg.edges[:0]
	for i, e := range lg.edges {
		if !back[i] {
			kept = append(kept, e)
		}
	}
	lg.edges = kept
}

// assignRanks gives every node its longest-path-from-source depth within
// its weakly connected component.
func (lg *layoutGraph) assignRanks() {
	// Kahn order over the acyclic edge set
	indeg := make(map[*layoutNode]int, len(lg.nodes))
	for _, n := range lg.nodes {
		indeg[n] = len(n.in)
	}
	queue := make([]*layoutNode, 0, len(lg.nodes))
	for _, n := range lg.nodes {
		if indeg[n] == 0 {
			n.rank = 0
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, next := range n.out {
			if n.rank+1 > next.rank {
				next.rank = n.rank + 1
			}
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	// Anything the queue never reached (shouldn't happen once cycles are
	// broken) lands on rank 0
	for _, n := range lg.nodes {
		if n.rank < 0 {
			n.rank = 0
		}
	}
}

// orderRanks assigns within-rank indices: initial order is input order, then
// one barycenter sweep pulls nodes toward the mean index of their
// predecessors to reduce crossings. The sort is stable on input order, so
// the result is deterministic.
func (lg *layoutGraph) orderRanks() {
	maxRank := 0
	for _, n := range lg.nodes {
		if n.rank > maxRank {
			maxRank = n.rank
		}
	}
	ranks := make([][]*layoutNode, maxRank+1)
	for _, n := range lg.nodes {
		ranks[n.rank] = append(ranks[n.rank], n)
	}

	for _, rank := range ranks {
		for i, n := range rank {
			n.index = i
		}
	}

	for r := 1; r <= maxRank; r++ {
		rank := ranks[r]
		bary := make(map[*layoutNode]float64, len(rank))
		for _, n := range rank {
			if len(n.in) == 0 {
				bary[n] = float64(n.index)
				continue
			}
			sum := 0.0
			for _, p := range n.in {
				sum += float64(p.index)
			}
			bary[n] = sum / float64(len(n.in))
		}
		sort.SliceStable(rank, func(i, j int) bool {
			if bary[rank[i]] != bary[rank[j]] {
				return bary[rank[i]] < bary[rank[j]]
			}
			return rank[i].order < rank[j].order
		})
		for i, n := range rank {
			n.index = i
		}
	}
}
