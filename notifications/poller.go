package notifications

import (
	"context"
	"time"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/session"
	"github.com/rs/zerolog/log"
)

const DefaultInterval = 60 * time.Second

// Poller refreshes the Store on a fixed interval while a user is logged in
type Poller struct {
	service  *Service
	state    *session.State
	interval time.Duration
	onUpdate func(*Store)
}

type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithOnUpdate is called after every successful fetch
func WithOnUpdate(fn func(*Store)) PollerOption {
	return func(p *Poller) {
		p.onUpdate = fn
	}
}

func NewPoller(service *Service, state *session.State, options ...PollerOption) *Poller {
	p := &Poller{
		service:  service,
		state:    state,
		interval: DefaultInterval,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Run fetches immediately and then every interval until ctx ends. Ticks while logged out
// are skipped and fetch errors are logged; neither stops the poller.
func (p *Poller) Run(ctx context.Context) error {
	select {
	case <-p.state.Ready():
	case <-ctx.Done():
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.poll(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	epoch := p.state.Epoch()
	if !p.state.Snapshot().IsAuthenticated {
		return
	}
	sameSession := func() bool {
		return p.state.Epoch() == epoch && p.state.Snapshot().IsAuthenticated
	}

	applied, err := p.service.RefreshIf(ctx, sameSession)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, errors.ErrSessionExpired) {
			log.Debug().Msg("Notification poll stopped by expired session")
			return
		}
		log.Err(err).Msg("Failed to fetch notifications")
		return
	}
	if !applied {
		log.Debug().Msg("Dropping notifications fetched for an ended session")
		return
	}

	if p.onUpdate != nil {
		p.onUpdate(p.service.Store())
	}
}
