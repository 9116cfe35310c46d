package graph

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func storeWithGraph() (*Store, *Graph) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(&Node{ID: id, Label: id})
	}
	g.Edges = []Edge{
		{ID: "a-b", Source: "a", Target: "b", Animated: true},
		{ID: "b-c", Source: "b", Target: "c", Animated: true},
		{ID: "c-a", Source: "c", Target: "a", Animated: true},
	}
	s := NewStore(nil)
	s.Replace(g)
	return s, g
}

func TestReplaceWholesale(t *testing.T) {
	s, _ := storeWithGraph()

	next := NewGraph()
	next.AddNode(&Node{ID: "x"})
	s.Replace(next)

	snap := s.Snapshot()
	if snap.NodeCount() != 1 {
		t.Fatalf("expected 1 node after replace, got %d", snap.NodeCount())
	}
	if _, ok := snap.Nodes["a"]; ok {
		t.Error("old nodes must not survive a replace")
	}
}

// TestRemoveNodePrunesIncidentEdges tests the atomic delete contract
func TestRemoveNodePrunesIncidentEdges(t *testing.T) {
	s, _ := storeWithGraph()

	if err := s.RemoveNode("b"); err != nil {
		t.Fatalf("RemoveNode failed: %v", err)
	}

	snap := s.Snapshot()
	if _, ok := snap.Nodes["b"]; ok {
		t.Error("node b still present")
	}
	if snap.NodeCount() != 2 {
		t.Errorf("expected 2 remaining nodes, got %d", snap.NodeCount())
	}
	if len(snap.Edges) != 1 || snap.Edges[0].ID != "c-a" {
		t.Errorf("only c-a should survive, got %+v", snap.Edges)
	}
	// Remaining nodes unaffected
	if snap.Nodes["a"].Label != "a" || snap.Nodes["c"].Label != "c" {
		t.Error("unrelated nodes were modified")
	}
}

func TestRemoveNodeMissing(t *testing.T) {
	s, _ := storeWithGraph()
	before := s.Snapshot()

	err := s.RemoveNode("ghost")
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("failed removal must leave the graph unchanged")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s, _ := storeWithGraph()

	snap := s.Snapshot()
	snap.Nodes["a"].Label = "mutated"
	snap.Edges[0].Label = "mutated"

	if s.Snapshot().Nodes["a"].Label != "a" {
		t.Error("mutating a snapshot leaked into the store")
	}
	if s.Snapshot().Edges[0].Label != "" {
		t.Error("mutating snapshot edges leaked into the store")
	}
}

func TestSetPositions(t *testing.T) {
	s, _ := storeWithGraph()

	s.SetPositions(map[string]Position{
		"a":     {X: 10, Y: 20},
		"ghost": {X: 1, Y: 1},
	})

	snap := s.Snapshot()
	if snap.Nodes["a"].Position != (Position{X: 10, Y: 20}) {
		t.Errorf("position not applied: %+v", snap.Nodes["a"].Position)
	}
	if snap.Nodes["b"].Position != (Position{}) {
		t.Error("untouched node position changed")
	}
}

func TestSubscribeNotifies(t *testing.T) {
	s, _ := storeWithGraph()
	sub := s.Subscribe()
	defer sub.Unsubscribe()

	s.Replace(NewGraph())

	select {
	case g, ok := <-sub.Channel():
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		if g.NodeCount() != 0 {
			t.Errorf("notification should carry the new graph, got %d nodes", g.NodeCount())
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for notification")
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	s, _ := storeWithGraph()
	sub := s.Subscribe()

	s.Close()

	select {
	case _, ok := <-sub.Channel():
		if ok {
			t.Error("expected closed channel after store close")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestEdgeIdentityIgnoresPosition(t *testing.T) {
	g1 := NewGraph()
	g1.AddNode(&Node{ID: "a", Position: Position{X: 1, Y: 2}})
	g2 := NewGraph()
	g2.AddNode(&Node{ID: "a", Position: Position{X: 99, Y: 99}})

	// Structural identity is id-based; positions are presentation only
	if len(g1.NodeOrder) != len(g2.NodeOrder) || g1.NodeOrder[0] != g2.NodeOrder[0] {
		t.Error("graphs with same ids must be structurally identical")
	}
}
