package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/sessionstore/pkg/logger"
)

// sweeper runs expired-session archival off the request path. Writers kick
// it through a buffered trigger channel; an optional ticker adds periodic
// sweeps. Sweep failures are logged, never surfaced to callers.
type sweeper struct {
	sweep    func(context.Context) error
	interval time.Duration
	log      *slog.Logger

	trigger  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSweeper(sweep func(context.Context) error, interval time.Duration, log *slog.Logger) *sweeper {
	s := &sweeper{
		sweep:    sweep,
		interval: interval,
		log:      log,
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *sweeper) run() {
	var tick <-chan time.Time
	if s.interval > 0 {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-s.done:
			return
		case <-s.trigger:
		case <-tick:
		}

		start := time.Now()
		if err := s.sweep(context.Background()); err != nil {
			s.log.Warn("expired session sweep failed",
				logger.Component("session.sweeper"),
				logger.Duration(time.Since(start)),
				logger.Error(err))
		}
	}
}

// kick schedules a sweep without blocking the caller. Pending kicks coalesce.
func (s *sweeper) kick() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *sweeper) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
