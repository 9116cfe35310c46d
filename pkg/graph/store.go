package graph

import (
	"sync"

	"github.com/explomap/explomap/pkg/logging"
)

// Store holds the authoritative graph for a session. All mutation goes
// through whole-state replacement or explicit node removal; there are no
// partial in-place edits, so readers never observe a torn graph.
type Store struct {
	mu     sync.RWMutex
	graph  *Graph
	logger logging.Logger

	subMu  sync.Mutex
	subs   map[*Subscription]bool
	closed bool
}

// Subscription delivers a notification after every structural change.
// The channel is buffered and sends are non-blocking: a slow consumer
// misses intermediate updates, never stalls the store.
type Subscription struct {
	ch        chan *Graph
	store     *Store
	closeOnce sync.Once
}

// NewStore creates an empty store
func NewStore(logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Store{
		graph:  NewGraph(),
		logger: logger.With(logging.Component("graphstore")),
		subs:   make(map[*Subscription]bool),
	}
}

// Snapshot returns a deep copy of the current graph
func (s *Store) Snapshot() *Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Clone()
}

// Replace swaps in a new graph wholesale. Manual positions and any derived
// presentation state for the previous graph are discarded by design.
func (s *Store) Replace(g *Graph) {
	if g == nil {
		g = NewGraph()
	}
	s.mu.Lock()
	s.graph = g
	s.mu.Unlock()

	s.logger.Info("graph replaced",
		logging.Int("nodes", g.NodeCount()),
		logging.Int("edges", g.EdgeCount()))
	s.notify()
}

// RemoveNode deletes a node and every edge where it is source or target.
// The removal is atomic from the reader's point of view.
func (s *Store) RemoveNode(id string) error {
	s.mu.Lock()
	if _, ok := s.graph.Nodes[id]; !ok {
		s.mu.Unlock()
		return &Error{Op: "RemoveNode", Entity: "node", ID: id, Cause: ErrNodeNotFound}
	}

	next := s.graph.Clone()
	delete(next.Nodes, id)
	order := next.NodeOrder[:0]
	for _, nid := range next.NodeOrder {
		if nid != id {
			order = append(order, nid)
		}
	}
	next.NodeOrder = order

	edges := next.Edges[:0]
	for _, e := range next.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	next.Edges = edges

	s.graph = next
	s.mu.Unlock()

	s.logger.Info("node removed", logging.NodeID(id))
	s.notify()
	return nil
}

// SetPositions applies new positions to the nodes named in the map, leaving
// everything else untouched. Used by layout application and manual drag.
func (s *Store) SetPositions(positions map[string]Position) {
	s.mu.Lock()
	next := s.graph.Clone()
	for id, pos := range positions {
		if n, ok := next.Nodes[id]; ok {
			n.Position = pos
		}
	}
	s.graph = next
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers for change notifications. Each notification carries
// a snapshot of the graph as of the change.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{
		ch:    make(chan *Graph, 8),
		store: s,
	}
	s.subMu.Lock()
	if s.closed {
		s.subMu.Unlock()
		sub.close()
		return sub
	}
	s.subs[sub] = true
	s.subMu.Unlock()
	return sub
}

// Close shuts the store down and closes all subscription channels
func (s *Store) Close() {
	s.subMu.Lock()
	if s.closed {
		s.subMu.Unlock()
		return
	}
	s.closed = true
	for sub := range s.subs {
		sub.close()
		delete(s.subs, sub)
	}
	s.subMu.Unlock()
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.subMu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subMu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- snap:
		default:
			// Subscriber lagging; it will pick up the next snapshot
		}
	}
}

// Channel returns the subscription's notification channel
func (sub *Subscription) Channel() <-chan *Graph {
	return sub.ch
}

// Unsubscribe removes the subscription and closes its channel
func (sub *Subscription) Unsubscribe() {
	sub.store.subMu.Lock()
	delete(sub.store.subs, sub)
	sub.store.subMu.Unlock()
	sub.close()
}

func (sub *Subscription) close() {
	sub.closeOnce.Do(func() {
		close(sub.ch)
	})
}
