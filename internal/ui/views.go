package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/presto-audio/presto/internal/backend"
	"github.com/presto-audio/presto/internal/channel"
	"github.com/presto-audio/presto/internal/health"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.viewHelp()
	}

	now := time.Now()
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	if banner := m.viewBanner(now); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	if m.reloadPending != nil {
		b.WriteString(m.styles.Warning.Render(fmt.Sprintf(
			"Server was updated (%s -> %s), reloading shortly...",
			m.reloadPending.OldID, m.reloadPending.NewID)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if !m.startupReady {
		b.WriteString(m.viewStartup())
	} else {
		b.WriteString(m.viewPlayers())
		if m.menuOpen {
			b.WriteString("\n")
			b.WriteString(m.viewMenu())
		}
	}

	b.WriteString("\n")
	b.WriteString(m.viewFooter())
	return b.String()
}

func (m Model) viewHeader() string {
	label, kind := connectionIndicator(m.healthStatus, m.chanState)
	style := m.styles.Muted
	switch kind {
	case indicatorGood:
		style = m.styles.Success
	case indicatorWarn:
		style = m.styles.Warning
	case indicatorBad:
		style = m.styles.Danger
	}

	parts := []string{
		m.styles.Title.Render("Presto"),
		m.styles.Muted.Render(m.opts.Server),
		style.Render(label),
	}
	return strings.Join(parts, m.styles.Muted.Render("  |  "))
}

type indicatorKind int

const (
	indicatorMuted indicatorKind = iota
	indicatorGood
	indicatorWarn
	indicatorBad
)

// connectionIndicator picks the header's connection label. An active outage
// wins over any channel state; otherwise the live channel decides whether
// updates are pushed or polled.
func connectionIndicator(st health.Status, cs channel.State) (string, indicatorKind) {
	if !st.Available {
		if st.DownSince.IsZero() {
			return "Connecting", indicatorMuted
		}
		return "Disconnected", indicatorBad
	}
	switch cs {
	case channel.StateConnected:
		return "Connected", indicatorGood
	case channel.StateReconnecting:
		return "Reconnecting", indicatorWarn
	case channel.StateConnecting:
		return "Connecting", indicatorMuted
	default:
		return "Polling only", indicatorMuted
	}
}

// viewBanner renders the outage banner, empty while healthy or before first
// contact.
func (m Model) viewBanner(now time.Time) string {
	st := m.healthStatus
	if st.Available || st.DownSince.IsZero() {
		return ""
	}
	text := "Connection to server lost"
	if st.Graceful {
		text = "Server is shutting down"
	}
	elapsed := formatDowntime(now.Sub(st.DownSince))
	return m.styles.Banner.Render(fmt.Sprintf("%s  (down %s, retrying)", text, elapsed))
}

// viewStartup renders the initialization overlay shown until the backend
// reports it is ready.
func (m Model) viewStartup() string {
	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(m.styles.Text.Render(" Server is starting"))
	b.WriteString("\n\n")

	phases := m.startupProgress.Phases
	if len(phases) == 0 {
		b.WriteString(m.styles.Muted.Render("  Waiting for the server to respond..."))
		b.WriteString("\n")
		return b.String()
	}

	for _, phase := range phases {
		style := m.styles.PhaseStyle(string(phase.Status))
		line := fmt.Sprintf("  %s %s", phaseGlyph(phase.Status), phase.Label)
		if phase.Detail != "" {
			line += m.styles.Muted.Render("  " + phase.Detail)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func phaseGlyph(status backend.PhaseStatus) string {
	switch status {
	case backend.PhaseCompleted:
		return "✓"
	case backend.PhaseInProgress:
		return "›"
	case backend.PhaseFailed:
		return "✗"
	default:
		return "·"
	}
}

func (m Model) viewPlayers() string {
	players := m.snap.Players
	if !m.snap.HasPlayers {
		return m.styles.Muted.Render("  Loading players...") + "\n"
	}
	if len(players) == 0 {
		return m.styles.Muted.Render("  No players configured. Add players to the server config to get started.") + "\n"
	}

	var b strings.Builder
	for i, p := range players {
		b.WriteString(m.viewPlayerRow(i, p))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewPlayerRow(i int, p backend.Player) string {
	volume := p.Volume
	if m.adjusting && p.Name == m.adjustName {
		volume = m.adjustVolume
	}

	marker := "  "
	if i == m.selected {
		marker = "▸ "
	}

	run := m.styles.Muted.Render("■")
	if p.Running {
		run = m.styles.Success.Render("▶")
	}

	line := fmt.Sprintf("%s%s %-16s %s %3d%%", marker, run, p.Name, m.volumeBar.ViewAs(float64(volume)/100), volume)
	if p.Muted {
		line += m.styles.Warning.Render("  muted")
	}
	if p.Device != "" {
		line += m.styles.Muted.Render("  " + m.snap.DeviceName(p.Device))
	}
	if p.DelayMS != 0 {
		line += m.styles.Muted.Render(fmt.Sprintf("  %+d ms", p.DelayMS))
	}
	if p.Error != "" {
		line += m.styles.Danger.Render("  " + p.Error)
	}

	if i == m.selected {
		return m.styles.Selected.Render(line)
	}
	return m.styles.Text.Render(line)
}

func (m Model) viewMenu() string {
	items := m.menuItems()
	if len(items) == 0 {
		return ""
	}
	p, _ := m.selectedPlayer()

	var b strings.Builder
	b.WriteString(m.styles.Accent.Render("  " + p.Name))
	b.WriteString("\n")
	for i, item := range items {
		line := "    " + item.label
		if i == m.menuIndex {
			b.WriteString(m.styles.Selected.Render("  ▸ " + item.label))
		} else {
			b.WriteString(m.styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewFooter() string {
	if m.notice != "" {
		style := m.styles.Accent
		if m.noticeErr {
			style = m.styles.Danger
		}
		return style.Render(m.notice)
	}

	hints := []string{
		"↑/↓ select",
		"←/→ volume",
		"m mute",
		"enter actions",
		"r refresh",
		"? help",
		"q quit",
	}
	return m.styles.Muted.Render(strings.Join(hints, "  ·  "))
}

func (m Model) viewHelp() string {
	entries := []struct{ key, desc string }{
		{"up/k, down/j", "Select player"},
		{"left/h, right/l", "Adjust volume"},
		{"m", "Toggle mute"},
		{"enter", "Open player actions (start, stop, sync nudge)"},
		{"r", "Refresh now"},
		{"T", "Cycle theme"},
		{"?", "Toggle this help"},
		{"esc", "Close menu or help"},
		{"q, ctrl+c", "Quit"},
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Presto keys"))
	b.WriteString("\n\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			m.styles.Accent.Render(fmt.Sprintf("%-18s", e.key)),
			m.styles.Text.Render(e.desc)))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("Theme: " + m.theme.Name))
	return b.String()
}
