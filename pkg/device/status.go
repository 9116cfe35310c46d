// Package device tracks the ADB connection status of the target device.
// Status is a current-value signal with no history: updates from the
// interval poller and from push messages land on the same store and the
// most recently delivered one wins.
package device

import "sync"

// State is the connection state reported by the agent
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
	StateUnauthorized State = "unauthorized"
	StateOffline      State = "offline"
	StateADBMissing   State = "adb_missing"
	StateError        State = "error"
)

// Status is the full ephemeral device status
type Status struct {
	State   State  `json:"status"`
	Device  string `json:"device,omitempty"`
	Message string `json:"message,omitempty"`
}

// Connected reports whether the device is usable for capture
func (s Status) Connected() bool {
	return s.State == StateConnected
}

// StatusStore holds the last delivered status. Each Set fully replaces the
// previous value.
type StatusStore struct {
	mu      sync.RWMutex
	current Status

	subMu sync.Mutex
	subs  map[chan Status]bool
}

// NewStatusStore starts in the disconnected state
func NewStatusStore() *StatusStore {
	return &StatusStore{
		current: Status{State: StateDisconnected},
		subs:    make(map[chan Status]bool),
	}
}

// Get returns the current status
func (s *StatusStore) Get() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the status wholesale and notifies subscribers
func (s *StatusStore) Set(status Status) {
	s.mu.Lock()
	s.current = status
	s.mu.Unlock()

	s.subMu.Lock()
	for ch := range s.subs {
		select {
		case ch <- status:
		default:
		}
	}
	s.subMu.Unlock()
}

// Subscribe returns a channel receiving each status update. Slow consumers
// miss intermediate values.
func (s *StatusStore) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 8)
	s.subMu.Lock()
	s.subs[ch] = true
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if s.subs[ch] {
			delete(s.subs, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}
