// Package graph holds the canonical screen-map model and the Store, the
// single source of truth for structural data during an exploration session.
//
// Structural identity is defined solely by node and edge ids. Positions are
// presentation attributes layered on top and never participate in equality.
package graph

import (
	"fmt"
	"time"
)

// Position is a top-left anchored coordinate in layout space
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RequestRecord is one captured network request associated with a screen
type RequestRecord struct {
	ID         string `json:"id,omitempty"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	Status     int    `json:"status"`
	Duration   string `json:"duration,omitempty"`
	CapturedAt string `json:"capturedAt,omitempty"`
}

// Age renders how long ago the request was captured, relative to now.
// Returns "" when the record carries no parseable timestamp.
func (r RequestRecord) Age(now time.Time) string {
	if r.CapturedAt == "" {
		return ""
	}
	ts, err := time.Parse(time.RFC3339, r.CapturedAt)
	if err != nil {
		return ""
	}
	d := now.Sub(ts)
	switch {
	case d < 0:
		return ""
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// ScreenElement is one UI element found by the vision parser
type ScreenElement struct {
	Content     string    `json:"content"`
	Type        string    `json:"type,omitempty"`
	Interactive bool      `json:"interactive,omitempty"`
	BBox        []float64 `json:"bbox,omitempty"`
}

// ScreenState captures global properties of the screen at parse time
type ScreenState struct {
	CanScrollVertical bool        `json:"canScrollVertical"`
	ScrollableAreas   [][]float64 `json:"scrollableAreas,omitempty"`
}

// ParserResult is the canonical shape of a node's vision-parser output.
// Raw payloads arrive in several historical shapes; the normalizer resolves
// them all to this one.
type ParserResult struct {
	ScreenState      *ScreenState         `json:"screenState,omitempty"`
	Elements         []ScreenElement      `json:"elements"`
	LabelCoordinates map[string][]float64 `json:"labelCoordinates,omitempty"`
}

// Node is a discovered screen in the explored application
type Node struct {
	ID                  string          `json:"id"`
	Position            Position        `json:"position"`
	Label               string          `json:"label"`
	Description         string          `json:"description,omitempty"`
	Screenshot          string          `json:"screenshot,omitempty"`
	AnnotatedScreenshot string          `json:"annotatedScreenshot,omitempty"`
	Traffic             []RequestRecord `json:"traffic,omitempty"`
	Parser              *ParserResult   `json:"parser,omitempty"`
}

// Edge is a directed transition between two screens
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Label    string `json:"label,omitempty"`
	Animated bool   `json:"animated"`
}

// Graph is the canonical node/edge collection. NodeOrder preserves the
// normalization order so layout runs are reproducible; it carries no
// structural meaning.
type Graph struct {
	Nodes     map[string]*Node
	NodeOrder []string
	Edges     []Edge
}

// NewGraph returns an empty graph
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make(map[string]*Node),
		NodeOrder: make([]string, 0),
	}
}

// AddNode inserts a node, keeping NodeOrder in step. Returns false if the
// id is already present.
func (g *Graph) AddNode(n *Node) bool {
	if _, ok := g.Nodes[n.ID]; ok {
		return false
	}
	g.Nodes[n.ID] = n
	g.NodeOrder = append(g.NodeOrder, n.ID)
	return true
}

// Clone returns a deep copy of the graph. Callers may mutate the copy
// freely without affecting the original.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes:     make(map[string]*Node, len(g.Nodes)),
		NodeOrder: append([]string(nil), g.NodeOrder...),
		Edges:     append([]Edge(nil), g.Edges...),
	}
	for id, n := range g.Nodes {
		c := *n
		c.Traffic = append([]RequestRecord(nil), n.Traffic...)
		if n.Parser != nil {
			p := *n.Parser
			p.Elements = append([]ScreenElement(nil), n.Parser.Elements...)
			c.Parser = &p
		}
		out.Nodes[id] = &c
	}
	return out
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.Edges)
}
