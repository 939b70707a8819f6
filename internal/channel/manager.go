package channel

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/presto-audio/presto/internal/backend"
)

// State is the live channel lifecycle.
type State int

const (
	// StateNoChannel means the transport capability was absent at
	// construction. Permanent for the session; polling carries all updates.
	StateNoChannel State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNoChannel:
		return "no-channel"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Sink receives translated channel events. Implementations serialize them
// onto a single ingestion point; the manager never touches shared state
// directly.
type Sink interface {
	ChannelSnapshots(players []backend.Player)
	ChannelProgress(progress backend.StartupProgress)
	ChannelShuttingDown()
	// ChannelConnected fires on every successful handshake. reconnected is
	// true when the connection replaces a dropped one, in which case the
	// backend identity must be re-validated before updates resume.
	ChannelConnected(reconnected bool)
	ChannelDisconnected()
}

// Conn is the subset of *websocket.Conn the manager uses.
type Conn interface {
	ReadJSON(v any) error
	Close() error
}

// Dialer opens one live channel connection. A nil Dialer means the
// transport is unavailable for the whole session.
type Dialer func(ctx context.Context) (Conn, error)

// WebsocketDialer returns a Dialer for the backend's websocket endpoint.
func WebsocketDialer(url string) Dialer {
	return func(ctx context.Context) (Conn, error) {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// frame is the wire envelope for push events.
type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	eventStatusUpdate    = "status_update"
	eventStartupProgress = "startup_progress"
	eventShuttingDown    = "shutting_down"
)

// Manager owns the optional push subscription: handshake, read loop, and
// reconnect policy. The initial handshake is attempted once; a failure
// silently leaves polling as the only feed. Drops after a successful
// connect are retried forever with capped exponential backoff.
type Manager struct {
	mu     sync.Mutex
	state  State
	dialer Dialer
	sink   Sink
	log    zerolog.Logger
}

// New builds a Manager. Passing a nil dialer fixes the NoChannel state for
// the session.
func New(dialer Dialer, sink Sink, log zerolog.Logger) *Manager {
	state := StateConnecting
	if dialer == nil {
		state = StateNoChannel
	}
	return &Manager{state: state, dialer: dialer, sink: sink, log: log}
}

// State returns the current channel state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run drives the channel until the context is cancelled. It blocks and is
// intended to run in its own goroutine.
func (m *Manager) Run(ctx context.Context) {
	if m.dialer == nil {
		m.log.Info().Msg("live channel transport unavailable, polling only")
		return
	}

	m.setState(StateConnecting)
	conn, err := m.dialer(ctx)
	if err != nil {
		// Initial handshake gets no retry; polling is a valid mode and the
		// user sees no error.
		m.log.Warn().Err(err).Msg("live channel handshake failed, falling back to polling")
		m.setState(StateClosed)
		return
	}

	m.setState(StateConnected)
	m.sink.ChannelConnected(false)

	for {
		readErr := m.readLoop(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			m.setState(StateClosed)
			return
		}

		m.log.Warn().Err(readErr).Msg("live channel dropped, reconnecting")
		m.setState(StateReconnecting)
		m.sink.ChannelDisconnected()

		conn = m.reconnect(ctx)
		if conn == nil {
			m.setState(StateClosed)
			return
		}

		m.setState(StateConnected)
		m.sink.ChannelConnected(true)
	}
}

// readLoop consumes frames until the connection fails or ctx is done.
func (m *Manager) readLoop(ctx context.Context, conn Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return err
		}
		m.dispatch(f)
	}
}

func (m *Manager) dispatch(f frame) {
	switch f.Type {
	case eventStatusUpdate:
		var players []backend.Player
		if err := json.Unmarshal(f.Data, &players); err != nil {
			m.log.Warn().Err(err).Msg("malformed status_update frame")
			return
		}
		m.sink.ChannelSnapshots(players)
	case eventStartupProgress:
		var progress backend.StartupProgress
		if err := json.Unmarshal(f.Data, &progress); err != nil {
			m.log.Warn().Err(err).Msg("malformed startup_progress frame")
			return
		}
		m.sink.ChannelProgress(progress)
	case eventShuttingDown:
		m.sink.ChannelShuttingDown()
	default:
		m.log.Debug().Str("type", f.Type).Msg("ignoring unknown channel event")
	}
}

// reconnect retries the dialer forever with capped backoff. Returns nil
// only when ctx is cancelled.
func (m *Manager) reconnect(ctx context.Context) Conn {
	policy := newReconnectBackoff()
	for attempt := 0; ; attempt++ {
		delay := policy.NextBackOff()
		m.log.Debug().Int("attempt", attempt).Dur("delay", delay).Msg("scheduling reconnect")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		conn, err := m.dialer(ctx)
		if err == nil {
			m.log.Info().Int("attempt", attempt).Msg("live channel reconnected")
			return conn
		}
		if ctx.Err() != nil {
			return nil
		}
		m.log.Debug().Err(err).Int("attempt", attempt).Msg("reconnect failed")
	}
}

// newReconnectBackoff yields 1s, 2s, 4s, ... capped at 30s, with no jitter
// and no give-up.
func newReconnectBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	return b
}

func (m *Manager) setState(state State) {
	m.mu.Lock()
	prev := m.state
	m.state = state
	m.mu.Unlock()
	if prev != state {
		m.log.Debug().Stringer("from", prev).Stringer("to", state).Msg("channel state changed")
	}
}
