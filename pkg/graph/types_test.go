package graph

import (
	"testing"
	"time"
)

func TestRequestRecordAge(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		capturedAt string
		want       string
	}{
		{"2026-08-23T11:59:30Z", "30s ago"},
		{"2026-08-23T11:45:00Z", "15m ago"},
		{"2026-08-23T09:00:00Z", "3h ago"},
		{"2026-08-21T12:00:00Z", "2d ago"},
		{"", ""},
		{"yesterday-ish", ""},
		{"2026-08-23T13:00:00Z", ""}, // future timestamps render nothing
	}
	for _, tt := range tests {
		rec := RequestRecord{CapturedAt: tt.capturedAt}
		if got := rec.Age(now); got != tt.want {
			t.Errorf("Age(%q) = %q, want %q", tt.capturedAt, got, tt.want)
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{
		ID:      "a",
		Label:   "Screen A",
		Traffic: []RequestRecord{{Method: "GET", URL: "https://x/1"}},
		Parser:  &ParserResult{Elements: []ScreenElement{{Content: "OK"}}},
	})
	g.Edges = []Edge{{ID: "a-a2", Source: "a", Target: "a"}}

	c := g.Clone()
	c.Nodes["a"].Traffic[0].URL = "mutated"
	c.Nodes["a"].Parser.Elements[0].Content = "mutated"
	c.NodeOrder[0] = "mutated"

	if g.Nodes["a"].Traffic[0].URL != "https://x/1" {
		t.Error("traffic slice shared between clone and original")
	}
	if g.Nodes["a"].Parser.Elements[0].Content != "OK" {
		t.Error("parser elements shared between clone and original")
	}
	if g.NodeOrder[0] != "a" {
		t.Error("node order shared between clone and original")
	}
}
