package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultPollInterval matches the refresh cadence of the web client.
const DefaultPollInterval = 60 * time.Second

// Poller refreshes the notification store on a fixed interval until its
// context is cancelled. One poller runs per logged-in session.
type Poller struct {
	store    *Store
	interval time.Duration

	// OnRefresh, when set, runs after every successful refresh. Set it
	// before Run.
	OnRefresh func()
}

// NewPoller creates a Poller over store. A zero interval uses the default.
func NewPoller(store *Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{store: store, interval: interval}
}

// Run refreshes immediately, then on every tick. It returns when ctx is
// cancelled. Refresh failures are logged and the loop keeps going.
func (p *Poller) Run(ctx context.Context) {
	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("notification poller stopped")
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	if err := p.store.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("notification refresh failed")
		return
	}
	if p.OnRefresh != nil {
		p.OnRefresh()
	}
}
