package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/presto-audio/presto/internal/backend"
	"github.com/presto-audio/presto/internal/health"
	"github.com/presto-audio/presto/internal/poll"
	"github.com/presto-audio/presto/internal/startup"
	"github.com/presto-audio/presto/internal/state"
)

// reloadDelay is how long the reload announcement stays on screen before
// the session is torn down.
const reloadDelay = 3 * time.Second

// Bridge carries controller effects into the UI. All funcs must be safe to
// call from any goroutine and before the UI program exists.
type Bridge struct {
	Notify         func(text string, isError bool)
	AnnounceReload func(oldID, newID string)
	TriggerReload  func()
}

// Controller is the single ingestion point for everything that mutates
// session state: poll results, live channel events, and recovery probes all
// funnel into one goroutine, so updates apply in arrival order and health
// transitions happen before the work they unlock.
type Controller struct {
	api        backend.API
	store      *state.Store
	health     *health.Tracker
	reconciler *startup.Reconciler
	scheduler  *poll.Scheduler
	bridge     Bridge
	log        zerolog.Logger

	ctx         context.Context
	events      chan event
	reloadDelay time.Duration

	// touched only by the ingestion goroutine
	onboardChecked bool
}

type event any

type pollResultEvent struct {
	players []backend.Player
	err     error
	forced  bool
}

type snapshotsEvent struct{ players []backend.Player }

type progressEvent struct{ progress backend.StartupProgress }

type shuttingDownEvent struct{}

type connectedEvent struct{ reconnected bool }

type disconnectedEvent struct{}

type devicesEvent struct {
	devices []backend.Device
	err     error
}

// NewController wires the sync core together around the given backend API.
func NewController(api backend.API, store *state.Store, tracker *health.Tracker, bridge Bridge, log zerolog.Logger) *Controller {
	c := &Controller{
		api:         api,
		store:       store,
		health:      tracker,
		bridge:      bridge,
		log:         log,
		events:      make(chan event, 64),
		reloadDelay: reloadDelay,
	}
	c.reconciler = startup.New(api, startup.Hooks{
		OnReady:       c.onReady,
		RequestReload: c.requestReload,
	}, log.With().Str("component", "startup").Logger())
	c.scheduler = poll.New(c.pollOnce, log.With().Str("component", "poll").Logger())
	tracker.Subscribe(c.onHealthChange)
	return c
}

// Reconciler exposes the startup reconciler for the UI's read side.
func (c *Controller) Reconciler() *startup.Reconciler {
	return c.reconciler
}

// ForceRefresh issues an immediate poll outside the periodic cadence.
func (c *Controller) ForceRefresh() {
	c.scheduler.Force()
}

// Start launches the ingestion loop.
func (c *Controller) Start(ctx context.Context) {
	c.ctx = ctx
	go c.loop(ctx)
}

// StartPolling arms the periodic poller and issues the first poll. The
// cadence starts degraded and the first successful contact promotes it.
func (c *Controller) StartPolling(ctx context.Context) {
	c.scheduler.Start(ctx, poll.DegradedInterval)
	c.scheduler.Force()
}

// Stop halts the periodic poller. The ingestion loop drains until its
// context is cancelled.
func (c *Controller) Stop() {
	c.scheduler.Stop()
}

// pollOnce runs as the scheduler's poll body. While the backend is still
// initializing it probes startup state instead of player data, so startup
// failures never count as an outage.
func (c *Controller) pollOnce(ctx context.Context, forced bool) {
	if !c.reconciler.Ready() {
		c.reconciler.CheckStartup(ctx)
		if !c.reconciler.Ready() {
			return
		}
	}

	players, err := c.api.FetchPlayers(ctx)
	c.post(pollResultEvent{players: players, err: err, forced: forced})
}

func (c *Controller) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-c.events:
			c.handle(ctx, e)
		}
	}
}

func (c *Controller) handle(ctx context.Context, e event) {
	switch e := e.(type) {
	case pollResultEvent:
		if e.err != nil {
			c.log.Warn().Err(e.err).Bool("forced", e.forced).Msg("poll failed")
			if e.forced {
				// A forced poll is a one-shot the user asked for; its
				// failure is reported but never drives health.
				c.bridge.Notify("refresh failed: "+e.err.Error(), true)
				return
			}
			c.store.RecordError(e.err)
			c.health.SetAvailable(false)
			return
		}
		c.health.SetAvailable(true)
		c.store.Offer(e.players)
		c.checkOnboarding(e.players)

	case snapshotsEvent:
		c.health.SetAvailable(true)
		c.store.Offer(e.players)
		c.checkOnboarding(e.players)

	case progressEvent:
		c.reconciler.HandleProgress(ctx, e.progress)

	case shuttingDownEvent:
		c.health.MarkShuttingDown()

	case connectedEvent:
		c.health.SetAvailable(true)
		if e.reconnected {
			// The backend behind a re-established channel may be a new
			// process; updates resume only against a verified identity.
			c.reconciler.VerifyIdentity(ctx)
		}

	case disconnectedEvent:
		// Reachability is the poller's verdict; a dropped channel alone
		// does not mean the backend is down.
		c.log.Info().Msg("live channel lost, awaiting reconnect")

	case devicesEvent:
		if e.err != nil {
			if errors.Is(e.err, backend.ErrNotFound) {
				c.log.Debug().Msg("backend has no device listing endpoint")
			} else {
				c.log.Warn().Err(e.err).Msg("device listing failed")
			}
			return
		}
		c.store.SetDevices(e.devices)
	}
}

// checkOnboarding runs once, after the first successful player load.
func (c *Controller) checkOnboarding(players []backend.Player) {
	if c.onboardChecked {
		return
	}
	c.onboardChecked = true
	if len(players) == 0 {
		c.bridge.Notify("No players configured yet. Add players to the server config to get started.", false)
	}
}

// onReady fires when backend initialization completes. Player data follows
// on the next poll; the device list loads once in the background.
func (c *Controller) onReady() {
	c.log.Info().Msg("backend initialization complete")
	c.scheduler.Force()
	go c.loadDevices(c.ctx)
}

func (c *Controller) loadDevices(ctx context.Context) {
	devices, err := c.api.FetchDevices(ctx)
	c.post(devicesEvent{devices: devices, err: err})
}

// requestReload announces the backend identity change, then tears the
// session down after a fixed delay so the announcement is actually seen.
func (c *Controller) requestReload(oldID, newID string) {
	c.bridge.AnnounceReload(oldID, newID)
	time.AfterFunc(c.reloadDelay, c.bridge.TriggerReload)
}

// onHealthChange runs synchronously after every health transition.
// Recovery re-checks initialization because a backend that died and came
// back is usually a fresh process mid-startup.
func (c *Controller) onHealthChange(st health.Status) {
	if st.Available {
		c.scheduler.SetInterval(poll.HealthyInterval)
		go c.reconciler.Recover(c.ctx)
		return
	}
	c.reconciler.MarkUnknown()
	c.scheduler.SetInterval(poll.DegradedInterval)
}

func (c *Controller) post(e event) {
	select {
	case c.events <- e:
	default:
		c.log.Warn().Msg("event dropped, ingestion backlog full")
	}
}

// ChannelSnapshots implements channel.Sink.
func (c *Controller) ChannelSnapshots(players []backend.Player) {
	c.post(snapshotsEvent{players: players})
}

// ChannelProgress implements channel.Sink.
func (c *Controller) ChannelProgress(progress backend.StartupProgress) {
	c.post(progressEvent{progress: progress})
}

// ChannelShuttingDown implements channel.Sink.
func (c *Controller) ChannelShuttingDown() {
	c.post(shuttingDownEvent{})
}

// ChannelConnected implements channel.Sink.
func (c *Controller) ChannelConnected(reconnected bool) {
	c.post(connectedEvent{reconnected: reconnected})
}

// ChannelDisconnected implements channel.Sink.
func (c *Controller) ChannelDisconnected() {
	c.post(disconnectedEvent{})
}
