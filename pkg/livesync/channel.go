// Package livesync owns the persistent push connection to the agent. It
// dispatches typed events and reconnects after a fixed delay on any close.
// Missed messages are never buffered or replayed; the full reload on
// graph_updated is the sole consistency mechanism.
package livesync

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/explomap/explomap/pkg/device"
	"github.com/explomap/explomap/pkg/logging"
	"github.com/explomap/explomap/pkg/metrics"
)

// State of the channel's connection lifecycle
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateTornDown
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateTornDown:
		return "torn down"
	default:
		return "unknown"
	}
}

// Recognized envelope types
const (
	TypeGraphUpdated = "graph_updated"
	TypeADBStatus    = "adb_status"
	TypePong         = "pong"
)

// Envelope is the wire shape of every push message. Fields beyond Type are
// populated per message type.
type Envelope struct {
	Type    string `json:"type"`
	Status  string `json:"status,omitempty"`
	Device  string `json:"device,omitempty"`
	Message string `json:"message,omitempty"`
}

// Handlers receive dispatched events. Nil handlers are skipped.
// OnGraphUpdated must tolerate being called while a previous reload is
// still in flight.
type Handlers struct {
	OnGraphUpdated func(message string)
	OnDeviceStatus func(status device.Status)
	OnStateChange  func(state State)
}

// DefaultReconnectDelay is the fixed wait before a reconnect attempt
const DefaultReconnectDelay = 3 * time.Second

// Channel maintains one persistent push connection with reconnection.
type Channel struct {
	endpoint string
	delay    time.Duration
	handlers Handlers
	logger   logging.Logger
	metrics  *metrics.Registry
	dialer   *websocket.Dialer

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	timer    *time.Timer
	tornDown bool
}

// New creates a channel for the push endpoint derived from baseURL.
// Start must be called to begin connecting.
func New(baseURL string, delay time.Duration, handlers Handlers, logger logging.Logger, reg *metrics.Registry) (*Channel, error) {
	endpoint, err := DeriveEndpoint(baseURL)
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Channel{
		endpoint: endpoint,
		delay:    delay,
		handlers: handlers,
		logger:   logger.With(logging.Component("livesync")),
		metrics:  reg,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		state:    StateIdle,
	}, nil
}

// Endpoint returns the derived push endpoint
func (c *Channel) Endpoint() string {
	return c.endpoint
}

// State returns the current connection state
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins the first connection attempt
func (c *Channel) Start() {
	go c.connect()
}

// TearDown permanently stops the channel: the connection is closed, any
// pending reconnect timer is cancelled, and no further attempts occur.
func (c *Channel) TearDown() {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return
	}
	c.tornDown = true
	c.setStateLocked(StateTornDown)
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.metrics.SetChannelConnected(false)
	c.logger.Info("channel torn down")
}

func (c *Channel) connect() {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return
	}
	// A new connection attempt cancels any outstanding timer
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	conn, _, err := c.dialer.Dial(c.endpoint, nil)
	if err != nil {
		c.logger.Warn("connect failed", logging.Error(err), logging.URL(c.endpoint))
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.setStateLocked(StateOpen)
	c.mu.Unlock()

	c.metrics.SetChannelConnected(true)
	c.logger.Info("channel open", logging.URL(c.endpoint))
	c.readLoop(conn)
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.onClose(err)
			return
		}
		c.dispatch(env)
	}
}

func (c *Channel) dispatch(env Envelope) {
	c.metrics.RecordPush(env.Type)
	switch env.Type {
	case TypeGraphUpdated:
		c.logger.Info("graph updated", logging.String("reason", env.Message))
		if c.handlers.OnGraphUpdated != nil {
			c.handlers.OnGraphUpdated(env.Message)
		}
	case TypeADBStatus:
		if c.handlers.OnDeviceStatus != nil {
			c.handlers.OnDeviceStatus(device.Status{
				State:   device.State(env.Status),
				Device:  env.Device,
				Message: env.Message,
			})
		}
	case TypePong:
		// Heartbeat, nothing to do
	default:
		c.logger.Debug("ignoring unrecognized message", logging.MessageType(env.Type))
	}
}

func (c *Channel) onClose(err error) {
	c.metrics.SetChannelConnected(false)

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if c.tornDown {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateClosed)
	c.mu.Unlock()

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Info("channel closed")
	} else {
		c.logger.Warn("channel closed unexpectedly", logging.Error(err))
	}
	c.scheduleReconnect()
}

// scheduleReconnect arms exactly one timer. If one is already pending the
// call is a no-op, so rapid close/error sequences cannot stack attempts.
func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown || c.timer != nil {
		return
	}
	c.metrics.RecordReconnect()
	c.logger.Info("reconnect scheduled", logging.Duration("delay", c.delay))
	c.timer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.timer = nil
		c.mu.Unlock()
		c.connect()
	})
}

func (c *Channel) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.handlers.OnStateChange != nil {
		go c.handlers.OnStateChange(s)
	}
}
