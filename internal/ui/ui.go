// Package ui implements the Bubble Tea interface: a player list with volume
// and mute controls, a per-player action menu, a startup overlay, and the
// connection banner. All data comes from the read-side snapshots; commands
// go straight to the backend client.
package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/presto-audio/presto/internal/channel"
	"github.com/presto-audio/presto/internal/health"
	"github.com/presto-audio/presto/internal/startup"
	"github.com/presto-audio/presto/internal/state"
)

// ErrReloadRequested is returned by Run when the backend identity changed
// and the whole session must be rebuilt against the new backend.
var ErrReloadRequested = errors.New("reload requested")

// Backend is the command surface the UI drives.
type Backend interface {
	SetVolume(ctx context.Context, name string, volume int) error
	SetMuted(ctx context.Context, name string, muted bool) error
	StartPlayer(ctx context.Context, name string) error
	StopPlayer(ctx context.Context, name string) error
	SetOffset(ctx context.Context, name string, delayMS int) error
}

// Options wires the UI to the sync core.
type Options struct {
	Store   *state.Store
	Health  *health.Tracker
	Channel *channel.Manager
	Startup *startup.Reconciler
	Backend Backend
	// Refresh forces an immediate poll, used after commands and on the
	// refresh key.
	Refresh   func()
	Server    string
	PrefsPath string
	Log       zerolog.Logger
}

// NewProgram builds the Bubble Tea program for the given session.
func NewProgram(opts Options) *tea.Program {
	return tea.NewProgram(New(opts), tea.WithAltScreen())
}

// Run drives the program until quit. It reports ErrReloadRequested when the
// UI exited because the backend identity changed.
func Run(p *tea.Program) error {
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	if m, ok := final.(Model); ok && m.reloadRequested {
		return ErrReloadRequested
	}
	return nil
}
