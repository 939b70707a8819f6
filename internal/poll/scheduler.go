package poll

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// HealthyInterval is the poll cadence while the backend is reachable.
	HealthyInterval = 5 * time.Second
	// DegradedInterval is the poll cadence while the backend is down, so
	// recovery is noticed quickly.
	DegradedInterval = 500 * time.Millisecond
)

// Func performs one poll. Forced polls are user- or recovery-triggered;
// their failures must not be treated as a reachability signal.
type Func func(ctx context.Context, forced bool)

// Scheduler issues periodic polls at a health-driven interval. At most one
// scheduled poll is outstanding at a time: a timer fire that lands while a
// previous poll is still in flight is skipped, never stacked. Forced polls
// bypass that guard exactly once each.
type Scheduler struct {
	mu       sync.Mutex
	poll     Func
	interval time.Duration
	timer    *time.Timer
	inFlight bool
	ctx      context.Context
	started  bool
	stopped  bool
	log      zerolog.Logger
}

// New builds a Scheduler around the given poll function.
func New(poll Func, log zerolog.Logger) *Scheduler {
	return &Scheduler{poll: poll, interval: HealthyInterval, log: log}
}

// Start arms the scheduler. The first fire happens one interval from now;
// callers wanting an immediate poll use Force.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.ctx = ctx
	if interval > 0 {
		s.interval = interval
	}
	s.schedule()
}

// SetInterval changes the poll cadence. A pending timer is cancelled and
// recreated so a stale long interval never outlives a degradation; a poll
// already in flight picks up the new interval on completion.
func (s *Scheduler) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if interval == s.interval {
		return
	}
	s.interval = interval
	if s.started && !s.stopped && !s.inFlight {
		s.schedule()
	}
}

// Force runs a poll immediately, bypassing the in-flight guard once. The
// poll is tagged as forced so the caller can keep its failure out of the
// health verdict.
func (s *Scheduler) Force() {
	s.mu.Lock()
	ctx := s.ctx
	ok := s.started && !s.stopped
	s.mu.Unlock()
	if !ok {
		return
	}
	go s.poll(ctx, true)
}

// Stop cancels the pending timer. In-flight polls finish on their own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) onTimer() {
	s.mu.Lock()
	if s.stopped || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if s.inFlight {
		// Never two outstanding polls from the same series.
		s.log.Debug().Msg("poll fire skipped, previous still in flight")
		s.schedule()
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	ctx := s.ctx
	s.mu.Unlock()

	go func() {
		s.poll(ctx, false)
		s.mu.Lock()
		s.inFlight = false
		if !s.stopped && ctx.Err() == nil {
			s.schedule()
		}
		s.mu.Unlock()
	}()
}

// schedule arms the next fire. Caller holds the lock.
func (s *Scheduler) schedule() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.interval, s.onTimer)
}
