// Package capture gates and single-flights the "capture one new screen"
// action against the device status.
package capture

import (
	"context"
	"errors"
	"sync"

	"github.com/explomap/explomap/pkg/device"
	"github.com/explomap/explomap/pkg/logging"
	"github.com/explomap/explomap/pkg/metrics"
)

var (
	// ErrNotConnected rejects arming while the device is not connected
	ErrNotConnected = errors.New("device not connected")
	// ErrCaptureInFlight rejects arming while a capture is outstanding
	ErrCaptureInFlight = errors.New("capture already in flight")
)

// Trigger issues the remote capture request. The resulting graph delta is
// observed via the next graph_updated push, not via this call's return.
type Trigger func(ctx context.Context) error

// StatusSource reports the current device status
type StatusSource interface {
	Get() device.Status
}

// Coordinator implements one-shot capture semantics: arming triggers
// exactly one remote request, and both the armed intent and the in-flight
// guard reset when the attempt completes either way.
type Coordinator struct {
	trigger Trigger
	status  StatusSource
	logger  logging.Logger
	metrics *metrics.Registry

	mu       sync.Mutex
	armed    bool
	inFlight bool
}

// NewCoordinator creates a coordinator
func NewCoordinator(trigger Trigger, status StatusSource, logger logging.Logger, reg *metrics.Registry) *Coordinator {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Coordinator{
		trigger: trigger,
		status:  status,
		logger:  logger.With(logging.Component("capture")),
		metrics: reg,
	}
}

// Armed reports whether capture intent is currently set
func (c *Coordinator) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// InFlight reports whether a capture request is outstanding
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Arm sets capture intent and issues the remote request in the background.
// It is rejected when the device is not connected or a capture is already
// in flight. The guard is checked and set under one lock acquisition, so
// two rapid arms cannot both pass.
func (c *Coordinator) Arm(ctx context.Context) error {
	if !c.status.Get().Connected() {
		return ErrNotConnected
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrCaptureInFlight
	}
	c.armed = true
	c.inFlight = true
	c.mu.Unlock()

	go c.run(ctx)
	return nil
}

func (c *Coordinator) run(ctx context.Context) {
	err := c.trigger(ctx)

	c.mu.Lock()
	c.armed = false
	c.inFlight = false
	c.mu.Unlock()

	if err != nil {
		// No automatic retry; the user re-arms if they still want the screen
		c.logger.Error("capture failed", logging.Error(err))
		c.metrics.RecordCapture(metrics.StatusError)
		return
	}
	c.logger.Info("capture request completed")
	c.metrics.RecordCapture(metrics.StatusOK)
}

// Disarm clears capture intent if no request is outstanding. An in-flight
// request cannot be recalled; it clears its own flags on completion.
func (c *Coordinator) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inFlight {
		c.armed = false
	}
}
