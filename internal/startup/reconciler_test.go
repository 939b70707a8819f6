package startup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/presto-audio/presto/internal/backend"
)

type fakeProber struct {
	mu            sync.Mutex
	progress      backend.StartupProgress
	progressErr   error
	progressCalls int
	build         backend.BuildInfo
	buildErr      error
}

func (f *fakeProber) FetchStartupProgress(ctx context.Context) (backend.StartupProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressCalls++
	if f.progressErr != nil {
		return backend.StartupProgress{}, f.progressErr
	}
	return f.progress, nil
}

func (f *fakeProber) FetchBuildInfo(ctx context.Context) (backend.BuildInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buildErr != nil {
		return backend.BuildInfo{}, f.buildErr
	}
	return f.build, nil
}

func TestReconciler_UnreachableProbeMeansStillStarting(t *testing.T) {
	probe := &fakeProber{progressErr: errors.New("connection refused")}
	r := New(probe, Hooks{
		OnReady: func() { t.Errorf("OnReady fired for unreachable probe") },
	}, zerolog.Nop())

	r.CheckStartup(context.Background())

	if r.Ready() {
		t.Fatalf("unreachable probe must not mark the client ready")
	}
}

func TestReconciler_IncompletePhasesSuppressLoading(t *testing.T) {
	probe := &fakeProber{progress: backend.StartupProgress{
		Phases: []backend.StartupPhase{
			{ID: "config", Label: "Load configuration", Status: backend.PhaseCompleted},
			{ID: "audio", Label: "Detect audio devices", Status: backend.PhaseInProgress},
			{ID: "players", Label: "Restore players", Status: backend.PhasePending},
		},
		Complete: false,
	}}
	r := New(probe, Hooks{
		OnReady: func() { t.Errorf("OnReady fired while incomplete") },
	}, zerolog.Nop())

	r.CheckStartup(context.Background())

	if r.Ready() {
		t.Fatalf("incomplete startup must suppress normal loading")
	}
	got := r.Progress()
	if len(got.Phases) != 3 {
		t.Fatalf("phases = %d, want all 3 rendered", len(got.Phases))
	}
	want := []string{"config", "audio", "players"}
	for i, id := range want {
		if got.Phases[i].ID != id {
			t.Fatalf("phase[%d] = %q, want %q (order preserved)", i, got.Phases[i].ID, id)
		}
	}
}

func TestReconciler_FirstCompletionWinsAndFiresOnce(t *testing.T) {
	probe := &fakeProber{
		progress: backend.StartupProgress{Complete: true},
		build:    backend.BuildInfo{Version: "abc123"},
	}
	var readyCalls int
	r := New(probe, Hooks{OnReady: func() { readyCalls++ }}, zerolog.Nop())

	ctx := context.Background()

	// Channel progress and a periodic probe both report completion; only
	// the first reveals the UI.
	r.HandleProgress(ctx, backend.StartupProgress{Complete: true})
	r.CheckStartup(ctx)
	r.HandleProgress(ctx, backend.StartupProgress{Complete: true})

	if !r.Ready() {
		t.Fatalf("completion should mark the client ready")
	}
	if readyCalls != 1 {
		t.Fatalf("OnReady fired %d times, want 1", readyCalls)
	}
}

func TestReconciler_IdentityMatchNeverReloads(t *testing.T) {
	probe := &fakeProber{build: backend.BuildInfo{Version: "abc123"}}
	r := New(probe, Hooks{
		RequestReload: func(oldID, newID string) { t.Errorf("reload requested for matching identity") },
	}, zerolog.Nop())

	ctx := context.Background()
	r.VerifyIdentity(ctx) // captures abc123
	r.VerifyIdentity(ctx)
	r.VerifyIdentity(ctx)
}

func TestReconciler_IdentityMismatchReloadsExactlyOnce(t *testing.T) {
	probe := &fakeProber{build: backend.BuildInfo{Version: "abc123"}}
	var reloads []string
	r := New(probe, Hooks{
		RequestReload: func(oldID, newID string) { reloads = append(reloads, oldID+"->"+newID) },
	}, zerolog.Nop())

	ctx := context.Background()
	r.VerifyIdentity(ctx)

	probe.mu.Lock()
	probe.build = backend.BuildInfo{Version: "def456"}
	probe.mu.Unlock()

	r.VerifyIdentity(ctx)
	r.VerifyIdentity(ctx)

	if len(reloads) != 1 || reloads[0] != "abc123->def456" {
		t.Fatalf("reloads = %v, want exactly one abc123->def456", reloads)
	}
}

func TestReconciler_RecoverIsIdempotent(t *testing.T) {
	probe := &fakeProber{
		progress: backend.StartupProgress{Complete: true},
		build:    backend.BuildInfo{Version: "abc123"},
	}
	r := New(probe, Hooks{}, zerolog.Nop())

	ctx := context.Background()
	r.Recover(ctx)
	first := probe.progressCalls

	// Startup state is now known; repeated recovery calls (poll success
	// and channel reconnect racing) must not re-probe.
	r.Recover(ctx)
	r.Recover(ctx)
	if probe.progressCalls != first {
		t.Fatalf("recover re-probed while state was known")
	}

	// After an outage the verdict is forgotten and recovery probes again.
	r.MarkUnknown()
	r.Recover(ctx)
	if probe.progressCalls != first+1 {
		t.Fatalf("recover after MarkUnknown should probe once more")
	}
}

func TestReconciler_RegressionSuppressesLoadingAgain(t *testing.T) {
	probe := &fakeProber{
		progress: backend.StartupProgress{Complete: true},
		build:    backend.BuildInfo{Version: "abc123"},
	}
	r := New(probe, Hooks{}, zerolog.Nop())

	ctx := context.Background()
	r.CheckStartup(ctx)
	if !r.Ready() {
		t.Fatalf("expected ready after completion")
	}

	// A restarted backend reports initialization in progress again.
	r.HandleProgress(ctx, backend.StartupProgress{
		Phases:   []backend.StartupPhase{{ID: "config", Status: backend.PhaseInProgress}},
		Complete: false,
	})
	if r.Ready() {
		t.Fatalf("incomplete progress after restart must suppress loading")
	}
}
