// Package session wires the sync engine together: the load pipeline, the
// push channel, the status poller, and the capture coordinator.
//
// Known tradeoff, kept deliberately: every graph_updated push re-runs the
// full load pipeline and replaces the graph wholesale, which discards
// manual node positioning and any active highlight or search state.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/explomap/explomap/pkg/capture"
	"github.com/explomap/explomap/pkg/client"
	"github.com/explomap/explomap/pkg/config"
	"github.com/explomap/explomap/pkg/device"
	"github.com/explomap/explomap/pkg/graph"
	"github.com/explomap/explomap/pkg/layout"
	"github.com/explomap/explomap/pkg/livesync"
	"github.com/explomap/explomap/pkg/logging"
	"github.com/explomap/explomap/pkg/metrics"
	"github.com/explomap/explomap/pkg/schema"
)

// Session owns one exploration-map session against one agent
type Session struct {
	cfg         *config.Config
	client      *client.Client
	store       *graph.Store
	engine      *layout.Engine
	channel     *livesync.Channel
	statusStore *device.StatusStore
	poller      *device.Poller
	coordinator *capture.Coordinator
	metrics     *metrics.Registry
	logger      logging.Logger

	cancel   context.CancelFunc
	reloadMu sync.Mutex
}

// New builds a session from config. Nothing connects until Start.
func New(cfg *config.Config, logger logging.Logger, reg *metrics.Registry) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}

	s := &Session{
		cfg:         cfg,
		client:      client.New(cfg.ServerURL, logger),
		store:       graph.NewStore(logger),
		engine:      layout.NewEngine(layout.Config{Direction: layout.Direction(cfg.LayoutDirection)}),
		statusStore: device.NewStatusStore(),
		metrics:     reg,
		logger:      logger.With(logging.Component("session")),
	}

	channel, err := livesync.New(cfg.ServerURL, cfg.ReconnectDelay(), livesync.Handlers{
		OnGraphUpdated: func(string) { go s.reload() },
		OnDeviceStatus: s.statusStore.Set,
	}, logger, reg)
	if err != nil {
		return nil, fmt.Errorf("create push channel: %w", err)
	}
	s.channel = channel

	s.poller = device.NewPoller(s.statusStore, s.client.DeviceStatus, cfg.PollInterval(), logger)
	s.coordinator = capture.NewCoordinator(func(ctx context.Context) error {
		_, err := s.client.AnalyzeScreen(ctx)
		return err
	}, s.statusStore, logger, reg)

	return s, nil
}

// Start runs the initial load and brings up the push channel and the
// status poller. A failed initial load is returned for the caller to
// surface; the graph stays empty and the session keeps running so the
// user can retry.
func (s *Session) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.channel.Start()
	go s.poller.Run(runCtx)

	return s.Load(ctx)
}

// Load runs the full pipeline: fetch, normalize, layout, replace. Reloads
// are serialized; a push arriving mid-load waits its turn.
func (s *Session) Load(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	raw, err := s.client.FetchGraph(ctx)
	if err != nil {
		s.metrics.RecordLoad(metrics.StatusError, time.Since(start), 0, 0)
		s.logger.Error("graph load failed", logging.Error(err))
		return err
	}

	res := schema.Normalize(raw)
	if res.DuplicateNodes > 0 || res.DanglingEdges > 0 {
		s.logger.Warn("normalizer dropped records",
			logging.Int("duplicate_nodes", res.DuplicateNodes),
			logging.Int("dangling_edges", res.DanglingEdges))
	}

	g := res.Graph
	positions := s.engine.Compute(g)
	for id, pos := range positions {
		g.Nodes[id].Position = pos
	}
	s.metrics.RecordLayout()

	s.store.Replace(g)
	s.metrics.RecordLoad(metrics.StatusOK, time.Since(start), g.NodeCount(), g.EdgeCount())
	s.logger.Info("graph loaded",
		logging.Int("nodes", g.NodeCount()),
		logging.Int("edges", g.EdgeCount()),
		logging.Latency(time.Since(start)))
	return nil
}

// reload is the graph_updated handler; failures are logged only, since the
// next push or a manual retry will reload again.
func (s *Session) reload() {
	if err := s.Load(context.Background()); err != nil {
		s.logger.Warn("push-triggered reload failed", logging.Error(err))
	}
}

// DeleteNode is confirm-then-apply: the local graph changes only after the
// server acknowledges. A failed delete leaves local state untouched.
func (s *Session) DeleteNode(ctx context.Context, id string) error {
	if err := s.client.DeleteNode(ctx, id); err != nil {
		s.metrics.RecordDelete(metrics.StatusError)
		s.logger.Error("delete failed", logging.NodeID(id), logging.Error(err))
		return err
	}
	s.metrics.RecordDelete(metrics.StatusOK)
	if err := s.store.RemoveNode(id); err != nil {
		// A reload may already have removed it; the server state won
		s.logger.Warn("local removal skipped", logging.NodeID(id), logging.Error(err))
	}
	return nil
}

// ResetLayout recomputes automatic placement for the current graph,
// overwriting any manual positioning.
func (s *Session) ResetLayout() {
	g := s.store.Snapshot()
	positions := s.engine.Compute(g)
	s.metrics.RecordLayout()
	s.store.SetPositions(positions)
}

// Capture arms one capture attempt
func (s *Session) Capture(ctx context.Context) error {
	return s.coordinator.Arm(ctx)
}

// Teardown stops the channel, the poller, and closes the store
func (s *Session) Teardown() {
	if s.cancel != nil {
		s.cancel()
	}
	s.channel.TearDown()
	s.store.Close()
	s.logger.Info("session torn down")
}

// Store exposes the graph store for rendering
func (s *Session) Store() *graph.Store {
	return s.store
}

// DeviceStatus exposes the status store
func (s *Session) DeviceStatus() *device.StatusStore {
	return s.statusStore
}

// Channel exposes the push channel (state inspection)
func (s *Session) Channel() *livesync.Channel {
	return s.channel
}

// Coordinator exposes the capture coordinator
func (s *Session) Coordinator() *capture.Coordinator {
	return s.coordinator
}

// PrefsPath returns the configured preferences path, defaulted
func (s *Session) PrefsPath() string {
	if s.cfg.PrefsPath != "" {
		return s.cfg.PrefsPath
	}
	return config.DefaultPrefsPath()
}
