package health

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status is the current connection health plus the auxiliary facts the UI
// renders alongside it.
type Status struct {
	Available bool
	// DownSince is when the backend became unreachable. Zero while
	// available, and zero before first contact so the banner stays hidden
	// during initial startup.
	DownSince time.Time
	// Graceful reports whether the current outage was announced by the
	// backend before it happened.
	Graceful bool
}

// Tracker is the single source of truth for backend reachability. Both the
// polling path and the live channel feed it; it alone decides transitions
// and notifies subscribers exactly once per change.
type Tracker struct {
	mu           sync.Mutex
	available    bool
	downSince    time.Time
	graceful     bool
	gracefulNext bool
	subscribers  []func(Status)
	now          func() time.Time
	log          zerolog.Logger
}

// New builds a Tracker. The initial state is unavailable with no outage
// timestamp, so nothing is rendered until first contact.
func New(log zerolog.Logger) *Tracker {
	return &Tracker{now: time.Now, log: log}
}

// Subscribe registers a callback invoked synchronously after every state
// transition. Subscribers run outside the tracker lock, in the caller's
// goroutine, so ordering relative to the transition is guaranteed.
func (t *Tracker) Subscribe(fn func(Status)) {
	t.mu.Lock()
	t.subscribers = append(t.subscribers, fn)
	t.mu.Unlock()
}

// SetAvailable records backend reachability. Setting the current value is a
// no-op; a transition fires subscribers exactly once.
func (t *Tracker) SetAvailable(available bool) {
	t.mu.Lock()
	if t.available == available {
		t.mu.Unlock()
		return
	}
	t.available = available
	if available {
		t.downSince = time.Time{}
		t.graceful = false
		t.gracefulNext = false
	} else {
		t.downSince = t.now()
		t.graceful = t.gracefulNext
		t.gracefulNext = false
	}
	status := t.statusLocked()
	subs := make([]func(Status), len(t.subscribers))
	copy(subs, t.subscribers)
	t.mu.Unlock()

	t.log.Info().Bool("available", available).Bool("graceful", status.Graceful).Msg("connection health changed")
	for _, fn := range subs {
		fn(status)
	}
}

// MarkShuttingDown pre-marks the next unavailable transition as announced.
// It changes banner wording only; reconnect policy is unaffected.
func (t *Tracker) MarkShuttingDown() {
	t.mu.Lock()
	t.gracefulNext = true
	t.mu.Unlock()
	t.log.Info().Msg("backend announced shutdown")
}

// Status returns the current health value.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

func (t *Tracker) statusLocked() Status {
	return Status{
		Available: t.available,
		DownSince: t.downSince,
		Graceful:  t.graceful,
	}
}
