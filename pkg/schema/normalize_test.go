package schema

import (
	"encoding/json"
	"testing"
)

// TestNodeFieldPrecedence tests that nested data fields win over flat ones
func TestNodeFieldPrecedence(t *testing.T) {
	payload := []byte(`{
		"nodes": [{
			"id": "n1",
			"label": "flat label",
			"description": "flat desc",
			"screenshot_path": "flat.png",
			"data": {
				"label": "nested label",
				"description": "nested desc",
				"screenshot": "http://host/screenshots/a.png",
				"annotatedScreenshot": "http://host/annotated-screenshots/a.png"
			}
		}],
		"edges": []
	}`)

	raw, err := ParseGraph(payload)
	if err != nil {
		t.Fatalf("ParseGraph failed: %v", err)
	}
	res := Normalize(raw)

	n := res.Graph.Nodes["n1"]
	if n == nil {
		t.Fatal("node n1 missing")
	}
	if n.Label != "nested label" {
		t.Errorf("expected nested label to win, got %q", n.Label)
	}
	if n.Description != "nested desc" {
		t.Errorf("expected nested description to win, got %q", n.Description)
	}
	if n.Screenshot != "http://host/screenshots/a.png" {
		t.Errorf("unexpected screenshot %q", n.Screenshot)
	}
	if n.AnnotatedScreenshot != "http://host/annotated-screenshots/a.png" {
		t.Errorf("unexpected annotated screenshot %q", n.AnnotatedScreenshot)
	}
}

// TestNodeDefaults tests placeholder label and origin position
func TestNodeDefaults(t *testing.T) {
	raw := &RawGraph{Nodes: []RawNode{{ID: "n1"}}}
	res := Normalize(raw)

	n := res.Graph.Nodes["n1"]
	if n.Label != DefaultLabel {
		t.Errorf("expected default label %q, got %q", DefaultLabel, n.Label)
	}
	if n.Position.X != 0 || n.Position.Y != 0 {
		t.Errorf("expected origin position, got (%f, %f)", n.Position.X, n.Position.Y)
	}
	if n.Description != "" || n.Screenshot != "" {
		t.Error("optional fields should default to empty")
	}
}

// TestFlatFallbacks tests the older flat-column node generation
func TestFlatFallbacks(t *testing.T) {
	raw := &RawGraph{Nodes: []RawNode{{
		ID:                      "n1",
		Label:                   "Login",
		Description:             "login screen",
		ScreenshotPath:          "screen_1.png",
		AnnotatedScreenshotPath: "screen_1_annotated.png",
	}}}
	res := Normalize(raw)

	n := res.Graph.Nodes["n1"]
	if n.Label != "Login" || n.Description != "login screen" {
		t.Errorf("flat fields not resolved: %+v", n)
	}
	if n.Screenshot != "screen_1.png" || n.AnnotatedScreenshot != "screen_1_annotated.png" {
		t.Errorf("flat screenshot paths not resolved: %+v", n)
	}
}

func TestEdgeAlternateKeys(t *testing.T) {
	raw := &RawGraph{
		Nodes: []RawNode{{ID: "a"}, {ID: "b"}},
		Edges: []RawEdge{{SourceNodeID: "a", TargetNodeID: "b"}},
	}
	res := Normalize(raw)

	if len(res.Graph.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(res.Graph.Edges))
	}
	e := res.Graph.Edges[0]
	if e.Source != "a" || e.Target != "b" {
		t.Errorf("alternate keys not resolved: %+v", e)
	}
	if e.ID != "a-b" {
		t.Errorf("expected derived id a-b, got %q", e.ID)
	}
	if !e.Animated {
		t.Error("animated should default to true")
	}
}

func TestEdgeAnimatedExplicitFalse(t *testing.T) {
	animated := false
	raw := &RawGraph{
		Nodes: []RawNode{{ID: "a"}, {ID: "b"}},
		Edges: []RawEdge{{ID: "e1", Source: "a", Target: "b", Animated: &animated}},
	}
	res := Normalize(raw)
	if res.Graph.Edges[0].Animated {
		t.Error("explicit animated=false must be preserved")
	}
}

// TestDuplicateNodeIDs tests deterministic first-wins dedup
func TestDuplicateNodeIDs(t *testing.T) {
	raw := &RawGraph{Nodes: []RawNode{
		{ID: "n1", Label: "first"},
		{ID: "n1", Label: "second"},
		{ID: "n2", Label: "other"},
	}}
	res := Normalize(raw)

	if res.Graph.NodeCount() != 2 {
		t.Fatalf("expected 2 nodes after dedup, got %d", res.Graph.NodeCount())
	}
	if res.DuplicateNodes != 1 {
		t.Errorf("expected 1 duplicate counted, got %d", res.DuplicateNodes)
	}
	if res.Graph.Nodes["n1"].Label != "first" {
		t.Errorf("first occurrence should win, got %q", res.Graph.Nodes["n1"].Label)
	}
}

// TestDanglingEdgesDropped tests the dangling-edge policy
func TestDanglingEdgesDropped(t *testing.T) {
	raw := &RawGraph{
		Nodes: []RawNode{{ID: "a"}, {ID: "b"}},
		Edges: []RawEdge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "ghost"},
			{Source: "ghost", Target: "b"},
			{Source: "", Target: "b"},
		},
	}
	res := Normalize(raw)

	if len(res.Graph.Edges) != 1 {
		t.Fatalf("expected 1 surviving edge, got %d", len(res.Graph.Edges))
	}
	if res.DanglingEdges != 3 {
		t.Errorf("expected 3 dangling edges counted, got %d", res.DanglingEdges)
	}
}

func TestTrafficStatusCodeFallback(t *testing.T) {
	status := 200
	raw := &RawGraph{Nodes: []RawNode{{
		ID: "n1",
		Traffic: []RawTraffic{
			{Method: "GET", URL: "https://api.example.com/auth", StatusCode: &status, Duration: "2m ago"},
		},
	}}}
	res := Normalize(raw)

	tr := res.Graph.Nodes["n1"].Traffic
	if len(tr) != 1 {
		t.Fatalf("expected 1 traffic record, got %d", len(tr))
	}
	if tr[0].Status != 200 {
		t.Errorf("status_code fallback not applied: %d", tr[0].Status)
	}
}

// TestParserLegacyList tests the bare-array parser generation
func TestParserLegacyList(t *testing.T) {
	raw := &RawGraph{Nodes: []RawNode{{
		ID:     "n1",
		Parser: json.RawMessage(`[{"type":"text","content":"Sign in","bbox":[0.1,0.2,0.3,0.4],"interactivity":true}]`),
	}}}
	res := Normalize(raw)

	p := res.Graph.Nodes["n1"].Parser
	if p == nil {
		t.Fatal("parser result missing")
	}
	if len(p.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(p.Elements))
	}
	el := p.Elements[0]
	if el.Content != "Sign in" || !el.Interactive || el.Type != "text" {
		t.Errorf("legacy element not normalized: %+v", el)
	}
}

// TestParserScreenStateWrapper tests the {screen_state, elements} generation
func TestParserScreenStateWrapper(t *testing.T) {
	raw := &RawGraph{Nodes: []RawNode{{
		ID: "n1",
		Parser: json.RawMessage(`{
			"screen_state": {"can_scroll_vertical": true, "scrollable_areas": [[0,100,1080,2000]]},
			"elements": [
				{"content": "Play", "type": "icon", "bounds": [936,1977,1080,2121],
				 "adb_attributes": {"clickable": true, "editable": false, "scrollable": false}}
			]
		}`),
	}}}
	res := Normalize(raw)

	p := res.Graph.Nodes["n1"].Parser
	if p == nil || p.ScreenState == nil {
		t.Fatal("screen state missing")
	}
	if !p.ScreenState.CanScrollVertical {
		t.Error("can_scroll_vertical not carried over")
	}
	if len(p.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(p.Elements))
	}
	el := p.Elements[0]
	if !el.Interactive {
		t.Error("clickable adb_attributes should mark element interactive")
	}
	if len(el.BBox) != 4 {
		t.Errorf("bounds should map to bbox, got %v", el.BBox)
	}
}

// TestParserContentListWrapper tests the {parsedContentList, labelCoordinates}
// generation
func TestParserContentListWrapper(t *testing.T) {
	raw := &RawGraph{Nodes: []RawNode{{
		ID: "n1",
		Parser: json.RawMessage(`{
			"parsedContentList": [{"content": "Username", "type": "text",
				"status": {"clickable": false, "editable": true, "scrollable": false}}],
			"labelCoordinates": {"0": [10, 20, 30, 40]}
		}`),
	}}}
	res := Normalize(raw)

	p := res.Graph.Nodes["n1"].Parser
	if p == nil {
		t.Fatal("parser result missing")
	}
	if len(p.Elements) != 1 || p.Elements[0].Content != "Username" {
		t.Fatalf("parsedContentList not resolved: %+v", p.Elements)
	}
	if !p.Elements[0].Interactive {
		t.Error("editable status should mark element interactive")
	}
	if p.LabelCoordinates == nil {
		t.Error("labelCoordinates dropped")
	}
}

func TestNormalizeNilAndEmpty(t *testing.T) {
	if res := Normalize(nil); res.Graph.NodeCount() != 0 {
		t.Error("nil payload should yield empty graph")
	}
	if res := Normalize(&RawGraph{}); res.Graph.NodeCount() != 0 || len(res.Graph.Edges) != 0 {
		t.Error("empty payload should yield empty graph")
	}
}
