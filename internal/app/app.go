package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/presto-audio/presto/internal/backend"
	"github.com/presto-audio/presto/internal/channel"
	"github.com/presto-audio/presto/internal/config"
	"github.com/presto-audio/presto/internal/health"
	"github.com/presto-audio/presto/internal/logging"
	"github.com/presto-audio/presto/internal/state"
	"github.com/presto-audio/presto/internal/ui"
)

var _ channel.Sink = (*Controller)(nil)

// Options configure the Presto application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/presto/prefs.toml
}

// Run boots the Presto TUI until the context is cancelled. When the backend
// identity changes mid-session, the whole session is rebuilt against the
// new backend and the UI comes back up from scratch.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.Open(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = closer.Close() }()

	logger.Info().Str("server", cfg.Server).Bool("no_live", cfg.NoLive).Msg("presto starting")

	for {
		err := runSession(ctx, cfg, opts.PrefsPath, logger)
		if errors.Is(err, ui.ErrReloadRequested) {
			logger.Info().Msg("rebuilding session after backend update")
			continue
		}
		return err
	}
}

// runSession builds one full client session and blocks until the UI exits.
func runSession(ctx context.Context, cfg config.Config, prefsPath string, logger zerolog.Logger) error {
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := backend.NewClient(cfg.Server)
	if err != nil {
		return fmt.Errorf("init backend client: %w", err)
	}

	store := state.NewStore(&state.Guard{})
	tracker := health.New(logger.With().Str("component", "health").Logger())

	handle := &programHandle{}
	bridge := Bridge{
		Notify: func(text string, isError bool) {
			handle.send(ui.NoticeMsg{Text: text, IsError: isError})
		},
		AnnounceReload: func(oldID, newID string) {
			handle.send(ui.ReloadPendingMsg{OldID: oldID, NewID: newID})
		},
		TriggerReload: func() {
			handle.send(ui.ReloadNowMsg{})
		},
	}

	ctrl := NewController(client, store, tracker, bridge, logger)

	var dialer channel.Dialer
	if !cfg.NoLive {
		dialer = channel.WebsocketDialer(client.WebSocketURL())
	}
	chanMgr := channel.New(dialer, ctrl, logger.With().Str("component", "channel").Logger())

	ctrl.Start(sctx)
	ctrl.StartPolling(sctx)
	defer ctrl.Stop()
	go chanMgr.Run(sctx)

	program := ui.NewProgram(ui.Options{
		Store:     store,
		Health:    tracker,
		Channel:   chanMgr,
		Startup:   ctrl.Reconciler(),
		Backend:   client,
		Refresh:   ctrl.ForceRefresh,
		Server:    cfg.Server,
		PrefsPath: prefsPath,
		Log:       logger,
	})
	handle.set(program)

	go func() {
		<-sctx.Done()
		program.Quit()
	}()

	return ui.Run(program)
}

// programHandle lets the controller send messages into a UI program that is
// constructed after the controller starts.
type programHandle struct {
	mu sync.Mutex
	p  *tea.Program
}

func (h *programHandle) set(p *tea.Program) {
	h.mu.Lock()
	h.p = p
	h.mu.Unlock()
}

func (h *programHandle) send(msg tea.Msg) {
	h.mu.Lock()
	p := h.p
	h.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}
