package overlay

import (
	"strings"

	"github.com/explomap/explomap/pkg/graph"
)

// Matches reports whether a node matches a query: case-insensitive
// substring against its label, any traffic request URL, or any parsed
// element's content. Any one source matching is enough.
func Matches(n *graph.Node, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(n.Label), q) {
		return true
	}
	for _, t := range n.Traffic {
		if strings.Contains(strings.ToLower(t.URL), q) {
			return true
		}
	}
	if n.Parser != nil {
		for _, el := range n.Parser.Elements {
			if strings.Contains(strings.ToLower(el.Content), q) {
				return true
			}
		}
	}
	return false
}

// Search returns the match/dim overlay for a query. Matched nodes get full
// opacity and a highlight border; everything else, edges included, is
// dimmed. Edges never regain full opacity from search alone. An empty or
// whitespace-only query restores the neutral state without computing
// matches.
func Search(g *graph.Graph, query string) *Overlay {
	if strings.TrimSpace(query) == "" {
		return Neutral(g)
	}

	o := &Overlay{
		Nodes: make(map[string]NodeStyle, len(g.Nodes)),
		Edges: make(map[string]EdgeStyle, len(g.Edges)),
	}
	for id, n := range g.Nodes {
		if Matches(n, query) {
			o.Nodes[id] = NodeStyle{Opacity: 1.0, Border: BorderSearchMatch}
		} else {
			o.Nodes[id] = NodeStyle{Opacity: DimOpacity, Border: BorderNone}
		}
	}
	for _, e := range g.Edges {
		o.Edges[e.ID] = EdgeStyle{Opacity: DimOpacity, Stroke: StrokeNeutral, Animated: e.Animated}
	}
	return o
}

// MatchCount returns how many nodes of the overlay's graph matched. Only
// meaningful on overlays produced by Search.
func (o *Overlay) MatchCount() int {
	count := 0
	for _, s := range o.Nodes {
		if s.Border == BorderSearchMatch {
			count++
		}
	}
	return count
}
