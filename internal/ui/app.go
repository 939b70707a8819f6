package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/presto-audio/presto/internal/backend"
	"github.com/presto-audio/presto/internal/channel"
	"github.com/presto-audio/presto/internal/health"
	"github.com/presto-audio/presto/internal/prefs"
	"github.com/presto-audio/presto/internal/state"
)

const (
	tickInterval = 400 * time.Millisecond
	// volumeSettleDelay is how long volume input must go quiet before the
	// gesture ends and the final value is sent.
	volumeSettleDelay = 800 * time.Millisecond
	volumeStep        = 5
	offsetStep        = 10
	volumeBarWidth    = 14
	noticeLifetime    = 4 * time.Second
)

// Model is the Bubble Tea model for the whole interface.
type Model struct {
	opts   Options
	keys   keyMap
	prefs  prefs.Prefs
	theme  Theme
	styles Styles

	width  int
	height int
	ready  bool

	spinner   spinner.Model
	volumeBar progress.Model

	snap            state.Snapshot
	healthStatus    health.Status
	chanState       channel.State
	startupReady    bool
	startupProgress backend.StartupProgress

	selected int

	adjusting    bool
	adjustName   string
	adjustVolume int
	adjustSeq    int

	menuOpen  bool
	menuIndex int

	notice      string
	noticeErr   bool
	noticeUntil time.Time

	showHelp bool

	reloadPending   *ReloadPendingMsg
	reloadRequested bool
}

// New builds the initial model.
func New(opts Options) Model {
	p, _ := prefs.Load(opts.PrefsPath)
	theme := GetTheme(p.Theme)
	styles := theme.Styles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Accent

	return Model{
		opts:      opts,
		keys:      DefaultKeyMap(),
		prefs:     p,
		theme:     theme,
		styles:    styles,
		spinner:   sp,
		volumeBar: newVolumeBar(theme),
	}
}

func newVolumeBar(theme Theme) progress.Model {
	return progress.New(
		progress.WithSolidFill(theme.Accent),
		progress.WithWidth(volumeBarWidth),
		progress.WithoutPercentage(),
	)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.refreshData()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.refreshData()
		if m.notice != "" && time.Now().After(m.noticeUntil) {
			m.notice = ""
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case adjustSettledMsg:
		return m.settleAdjust(msg)

	case commandDoneMsg:
		return m.handleCommandDone(msg)

	case NoticeMsg:
		m.notice = msg.Text
		m.noticeErr = msg.IsError
		m.noticeUntil = time.Now().Add(noticeLifetime)
		return m, nil

	case ReloadPendingMsg:
		pending := msg
		m.reloadPending = &pending
		return m, nil

	case ReloadNowMsg:
		m.reloadRequested = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		return m.cycleTheme()
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Escape) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.menuOpen {
		return m.handleMenuKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.snap.Players)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.VolumeDown):
		return m.adjustVolumeBy(-volumeStep)

	case key.Matches(msg, m.keys.VolumeUp):
		return m.adjustVolumeBy(volumeStep)

	case key.Matches(msg, m.keys.Mute):
		return m.toggleMute()

	case key.Matches(msg, m.keys.Menu):
		if _, ok := m.selectedPlayer(); ok {
			m.opts.Store.Guard().OpenMenu()
			m.menuOpen = true
			m.menuIndex = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.opts.Refresh != nil {
			m.opts.Refresh()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.menuItems()

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.menuOpen = false
		m.opts.Store.CloseMenu()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.menuIndex > 0 {
			m.menuIndex--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.menuIndex < len(items)-1 {
			m.menuIndex++
		}
		return m, nil

	case key.Matches(msg, m.keys.Menu):
		var cmd tea.Cmd
		if m.menuIndex < len(items) {
			cmd = items[m.menuIndex].run
		}
		m.menuOpen = false
		m.opts.Store.CloseMenu()
		return m, cmd
	}
	return m, nil
}

// adjustVolumeBy starts or continues a volume gesture on the selected
// player. The backend call is deferred until the gesture settles.
func (m Model) adjustVolumeBy(delta int) (tea.Model, tea.Cmd) {
	p, ok := m.selectedPlayer()
	if !ok {
		return m, nil
	}

	if !m.adjusting || m.adjustName != p.Name {
		m.opts.Store.Guard().BeginAdjust()
		m.adjusting = true
		m.adjustName = p.Name
		m.adjustVolume = p.Volume
	}
	m.adjustVolume = clamp(m.adjustVolume+delta, 0, 100)
	m.adjustSeq++
	seq := m.adjustSeq

	return m, tea.Tick(volumeSettleDelay, func(time.Time) tea.Msg {
		return adjustSettledMsg{seq: seq}
	})
}

// settleAdjust ends the gesture if no newer input arrived, releasing any
// deferred snapshot and sending the final volume.
func (m Model) settleAdjust(msg adjustSettledMsg) (tea.Model, tea.Cmd) {
	if !m.adjusting || msg.seq != m.adjustSeq {
		return m, nil
	}
	m.adjusting = false
	name := m.adjustName
	volume := m.adjustVolume
	m.opts.Store.EndAdjust()

	api := m.opts.Backend
	return m, commandCmd("volume", func() error {
		return api.SetVolume(context.Background(), name, volume)
	})
}

func (m Model) toggleMute() (tea.Model, tea.Cmd) {
	p, ok := m.selectedPlayer()
	if !ok {
		return m, nil
	}
	api := m.opts.Backend
	name := p.Name
	muted := !p.Muted
	return m, commandCmd("mute", func() error {
		return api.SetMuted(context.Background(), name, muted)
	})
}

func (m Model) cycleTheme() (tea.Model, tea.Cmd) {
	m.prefs.Theme = NextTheme(m.theme.Name)
	m.theme = GetTheme(m.prefs.Theme)
	m.styles = m.theme.Styles()
	m.spinner.Style = m.styles.Accent
	m.volumeBar = newVolumeBar(m.theme)

	path := m.opts.PrefsPath
	saved := m.prefs
	return m, func() tea.Msg {
		// Preference persistence is best effort.
		_ = prefs.Save(path, saved)
		return nil
	}
}

func (m Model) handleCommandDone(msg commandDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.notice = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		m.noticeErr = true
		m.noticeUntil = time.Now().Add(noticeLifetime)
		return m, nil
	}
	if m.opts.Refresh != nil {
		m.opts.Refresh()
	}
	switch msg.action {
	case "start", "stop":
		m.notice = msg.action + " requested"
	case "offset":
		m.notice = "sync offset updated, applies on next restart"
	default:
		return m, nil
	}
	m.noticeErr = false
	m.noticeUntil = time.Now().Add(noticeLifetime)
	return m, nil
}

type menuItem struct {
	label string
	run   tea.Cmd
}

// menuItems builds the action menu for the selected player.
func (m Model) menuItems() []menuItem {
	p, ok := m.selectedPlayer()
	if !ok {
		return nil
	}
	api := m.opts.Backend
	name := p.Name

	items := make([]menuItem, 0, 4)
	if p.Running {
		items = append(items, menuItem{
			label: "Stop player",
			run: commandCmd("stop", func() error {
				return api.StopPlayer(context.Background(), name)
			}),
		})
	} else {
		items = append(items, menuItem{
			label: "Start player",
			run: commandCmd("start", func() error {
				return api.StartPlayer(context.Background(), name)
			}),
		})
	}

	for _, step := range []int{-offsetStep, offsetStep} {
		delay := clamp(p.DelayMS+step, -1000, 1000)
		label := fmt.Sprintf("Nudge sync %+d ms (now %d ms)", step, p.DelayMS)
		items = append(items, menuItem{
			label: label,
			run: commandCmd("offset", func() error {
				return api.SetOffset(context.Background(), name, delay)
			}),
		})
	}

	items = append(items, menuItem{label: "Cancel"})
	return items
}

func (m Model) selectedPlayer() (backend.Player, bool) {
	if m.selected < 0 || m.selected >= len(m.snap.Players) {
		return backend.Player{}, false
	}
	return m.snap.Players[m.selected], true
}

// refreshData pulls fresh read-side snapshots onto the model.
func (m *Model) refreshData() {
	if m.opts.Store != nil {
		m.snap = m.opts.Store.Snapshot()
	}
	if m.opts.Health != nil {
		m.healthStatus = m.opts.Health.Status()
	}
	if m.opts.Channel != nil {
		m.chanState = m.opts.Channel.State()
	}
	if m.opts.Startup != nil {
		m.startupReady = m.opts.Startup.Ready()
		m.startupProgress = m.opts.Startup.Progress()
	}
	if n := len(m.snap.Players); n == 0 {
		m.selected = 0
	} else if m.selected >= n {
		m.selected = n - 1
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func commandCmd(action string, fn func() error) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		return commandDoneMsg{action: action, err: fn()}
	}
}
