package device

import (
	"context"
	"time"

	"github.com/explomap/explomap/pkg/logging"
)

// FetchFunc retrieves the current status from the agent
type FetchFunc func(ctx context.Context) (Status, error)

// Poller polls the agent's status endpoint on a fixed interval as a
// redundant fallback to the push channel. Both write to the same store;
// last delivered wins.
type Poller struct {
	store    *StatusStore
	fetch    FetchFunc
	interval time.Duration
	logger   logging.Logger
}

// NewPoller creates a poller; interval defaults to 3s
func NewPoller(store *StatusStore, fetch FetchFunc, interval time.Duration, logger logging.Logger) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Poller{
		store:    store,
		fetch:    fetch,
		interval: interval,
		logger:   logger.With(logging.Component("statuspoller")),
	}
}

// Run polls until the context is cancelled. An immediate first poll runs
// before the ticker starts.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	status, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("status poll failed", logging.Error(err))
		p.store.Set(Status{State: StateError, Message: err.Error()})
		return
	}
	p.store.Set(status)
}
