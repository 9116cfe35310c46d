package overlay

import "github.com/explomap/explomap/pkg/graph"

// Ancestry is the set of node ids and edge ids lying on any path that
// reaches the focal node by following edges backward.
type Ancestry struct {
	Nodes map[string]bool
	Edges map[string]bool
}

// Ancestors walks the incoming-edge adjacency from the focal node. Each
// node is visited at most once, but every edge encountered during the walk
// is marked, including edges into already-visited nodes, so parallel paths
// into a shared ancestor all highlight.
func Ancestors(edges []graph.Edge, focalID string) *Ancestry {
	incoming := make(map[string][]graph.Edge)
	for _, e := range edges {
		incoming[e.Target] = append(incoming[e.Target], e)
	}

	a := &Ancestry{
		Nodes: map[string]bool{focalID: true},
		Edges: make(map[string]bool),
	}
	queue := []string{focalID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range incoming[id] {
			a.Edges[e.ID] = true
			if !a.Nodes[e.Source] {
				a.Nodes[e.Source] = true
				queue = append(queue, e.Source)
			}
		}
	}
	return a
}

// Path returns the ancestor-highlight overlay for a focal node: members get
// full opacity with a path border/stroke, everything else is dimmed. An
// empty focal id returns the neutral overlay.
func Path(g *graph.Graph, focalID string) *Overlay {
	if focalID == "" {
		return Neutral(g)
	}

	a := Ancestors(g.Edges, focalID)
	o := &Overlay{
		Nodes: make(map[string]NodeStyle, len(g.Nodes)),
		Edges: make(map[string]EdgeStyle, len(g.Edges)),
	}
	for id := range g.Nodes {
		if a.Nodes[id] {
			o.Nodes[id] = NodeStyle{Opacity: 1.0, Border: BorderPath}
		} else {
			o.Nodes[id] = NodeStyle{Opacity: DimOpacity, Border: BorderNone}
		}
	}
	for _, e := range g.Edges {
		if a.Edges[e.ID] {
			o.Edges[e.ID] = EdgeStyle{Opacity: 1.0, Stroke: StrokePath, Animated: e.Animated}
		} else {
			o.Edges[e.ID] = EdgeStyle{Opacity: DimOpacity, Stroke: StrokeNeutral, Animated: e.Animated}
		}
	}
	return o
}
