package startup

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/presto-audio/presto/internal/backend"
)

// Prober is the subset of the backend API the reconciler needs.
type Prober interface {
	FetchStartupProgress(ctx context.Context) (backend.StartupProgress, error)
	FetchBuildInfo(ctx context.Context) (backend.BuildInfo, error)
}

// Hooks are the reconciler's outbound effects, wired by the composition
// root.
type Hooks struct {
	// OnReady fires when backend initialization completes: reveal the
	// normal UI, load status and devices once, and run the onboarding
	// check.
	OnReady func()
	// RequestReload fires at most once per session, when the backend
	// identity no longer matches the captured one.
	RequestReload func(oldID, newID string)
}

// Reconciler tracks backend initialization before first real use and
// detects a backend identity change to force a full client reload.
//
// Two independent feeds can report completion (periodic probing and the
// live channel's progress events); the first one wins. Recovery after an
// outage re-checks initialization, since a dead backend implies a fresh
// process.
type Reconciler struct {
	mu              sync.Mutex
	probe           Prober
	hooks           Hooks
	progress        backend.StartupProgress
	ready           bool
	known           bool
	identity        string
	reloadRequested bool
	log             zerolog.Logger
}

// New builds a Reconciler.
func New(probe Prober, hooks Hooks, log zerolog.Logger) *Reconciler {
	return &Reconciler{probe: probe, hooks: hooks, log: log}
}

// Ready reports whether normal data loading and rendering may proceed.
func (r *Reconciler) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// Progress returns the last reported initialization state.
func (r *Reconciler) Progress() backend.StartupProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := r.progress
	dup.Phases = make([]backend.StartupPhase, len(r.progress.Phases))
	copy(dup.Phases, r.progress.Phases)
	return dup
}

// CheckStartup probes initialization state. An unreachable probe means
// "still starting", never an error.
func (r *Reconciler) CheckStartup(ctx context.Context) {
	progress, err := r.probe.FetchStartupProgress(ctx)
	if err != nil {
		r.log.Debug().Err(err).Msg("startup probe unreachable, treating as still starting")
		return
	}
	r.apply(ctx, progress)
}

// HandleProgress ingests a progress push from the live channel, covering
// the case where a periodic probe would have missed the transition.
func (r *Reconciler) HandleProgress(ctx context.Context, progress backend.StartupProgress) {
	r.apply(ctx, progress)
}

// MarkUnknown forgets the initialization verdict. Called when the backend
// becomes unreachable; the next recovery must re-check.
func (r *Reconciler) MarkUnknown() {
	r.mu.Lock()
	r.known = false
	r.mu.Unlock()
}

// Recover re-checks initialization after reachability returns. Reachable
// from both the polling and channel recovery paths; the known flag makes
// repeated calls a no-op.
func (r *Reconciler) Recover(ctx context.Context) {
	r.mu.Lock()
	if r.known {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.CheckStartup(ctx)
}

// VerifyIdentity compares the backend's build identity against the one
// captured on first contact. On mismatch it requests exactly one reload.
func (r *Reconciler) VerifyIdentity(ctx context.Context) {
	info, err := r.probe.FetchBuildInfo(ctx)
	if err != nil {
		r.log.Debug().Err(err).Msg("build info probe failed")
		return
	}
	id := info.Identity()
	if id == "" {
		return
	}

	r.mu.Lock()
	if r.identity == "" {
		r.identity = id
		r.mu.Unlock()
		r.log.Info().Str("identity", id).Msg("captured backend identity")
		return
	}
	if r.identity == id || r.reloadRequested {
		r.mu.Unlock()
		return
	}
	r.reloadRequested = true
	oldID := r.identity
	r.mu.Unlock()

	r.log.Warn().Str("old", oldID).Str("new", id).Msg("backend identity changed, reload required")
	if r.hooks.RequestReload != nil {
		r.hooks.RequestReload(oldID, id)
	}
}

func (r *Reconciler) apply(ctx context.Context, progress backend.StartupProgress) {
	r.mu.Lock()
	r.known = true
	r.progress = progress
	if !progress.Complete {
		// Initialization regressed or is still running; suppress normal
		// loading until it completes again.
		r.ready = false
		r.mu.Unlock()
		return
	}
	fire := !r.ready
	r.ready = true
	r.mu.Unlock()

	r.VerifyIdentity(ctx)
	if fire && r.hooks.OnReady != nil {
		r.hooks.OnReady()
	}
}
