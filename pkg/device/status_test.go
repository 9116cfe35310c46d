package device

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestStatusStoreLastWriteWins(t *testing.T) {
	s := NewStatusStore()
	if s.Get().State != StateDisconnected {
		t.Errorf("initial state should be disconnected, got %s", s.Get().State)
	}

	s.Set(Status{State: StateConnected, Device: "emulator-5554"})
	s.Set(Status{State: StateOffline, Message: "device offline"})

	got := s.Get()
	if got.State != StateOffline {
		t.Errorf("expected last write to win, got %s", got.State)
	}
	if got.Device != "" {
		t.Error("Set must replace wholesale, not merge")
	}
}

func TestStatusStoreSubscribe(t *testing.T) {
	s := NewStatusStore()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Set(Status{State: StateConnected})

	select {
	case st := <-ch:
		if st.State != StateConnected {
			t.Errorf("unexpected update: %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for update")
	}
}

func TestStatusStoreCancelStopsDelivery(t *testing.T) {
	s := NewStatusStore()
	ch, cancel := s.Subscribe()
	cancel()

	s.Set(Status{State: StateConnected})

	if _, ok := <-ch; ok {
		t.Error("cancelled subscription should have a closed channel")
	}
	// Double cancel is safe
	cancel()
}

func TestConnected(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateConnected, true},
		{StateDisconnected, false},
		{StateUnauthorized, false},
		{StateOffline, false},
		{StateADBMissing, false},
		{StateError, false},
	}
	for _, tt := range tests {
		if got := (Status{State: tt.state}).Connected(); got != tt.want {
			t.Errorf("Connected() for %s = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestPollerImmediateFirstPoll(t *testing.T) {
	store := NewStatusStore()
	p := NewPoller(store, func(ctx context.Context) (Status, error) {
		return Status{State: StateConnected, Device: "pixel-7"}, nil
	}, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	deadline := time.After(time.Second)
	for store.Get().State != StateConnected {
		select {
		case <-deadline:
			t.Fatal("first poll never landed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
}

func TestPollerRepeats(t *testing.T) {
	var polls atomic.Int64
	store := NewStatusStore()
	p := NewPoller(store, func(ctx context.Context) (Status, error) {
		polls.Add(1)
		return Status{State: StateConnected}, nil
	}, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	deadline := time.After(2 * time.Second)
	for polls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected repeated polls, got %d", polls.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// TestPollerFetchError tests that a failing poll surfaces as an error status
// rather than silently keeping the stale value
func TestPollerFetchError(t *testing.T) {
	store := NewStatusStore()
	store.Set(Status{State: StateConnected})

	p := NewPoller(store, func(ctx context.Context) (Status, error) {
		return Status{}, errors.New("agent unreachable")
	}, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	deadline := time.After(time.Second)
	for store.Get().State != StateError {
		select {
		case <-deadline:
			t.Fatalf("error state never set, still %s", store.Get().State)
		case <-time.After(5 * time.Millisecond):
		}
	}
	if store.Get().Message != "agent unreachable" {
		t.Errorf("error message not carried: %q", store.Get().Message)
	}
	cancel()
}

func TestPollerStopsOnCancel(t *testing.T) {
	var polls atomic.Int64
	store := NewStatusStore()
	p := NewPoller(store, func(ctx context.Context) (Status, error) {
		polls.Add(1)
		return Status{State: StateConnected}, nil
	}, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}

	settled := polls.Load()
	time.Sleep(50 * time.Millisecond)
	if polls.Load() != settled {
		t.Error("polls continued after cancel")
	}
}
