package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the UI.
type Theme struct {
	Name string

	Text    string
	Muted   string
	Accent  string
	Success string
	Warning string
	Danger  string

	SelectionBg   string
	SelectionText string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Accent)),

		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		Accent: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)),

		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		Danger: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)),

		Banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Danger)),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),
	}
}

// Styles holds the resolved Lipgloss styles used by the views.
type Styles struct {
	Title    lipgloss.Style
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Danger   lipgloss.Style
	Banner   lipgloss.Style
	Selected lipgloss.Style
}

// PhaseStyle maps a startup phase status to a display style.
func (s Styles) PhaseStyle(status string) lipgloss.Style {
	switch status {
	case "completed":
		return s.Success
	case "in_progress":
		return s.Accent
	case "failed":
		return s.Danger
	default:
		return s.Muted
	}
}

// Theme definitions

var themes = map[string]Theme{
	"Dracula": draculaTheme(),
	"Nord":    nordTheme(),
	"Slate":   slateTheme(),
}

var themeOrder = []string{"Dracula", "Nord", "Slate"}

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return draculaTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

func draculaTheme() Theme {
	// Dracula palette: https://draculatheme.com/contribute
	return Theme{
		Name: "Dracula",

		Text:    "#f8f8f2", // foreground
		Muted:   "#6272a4", // comment
		Accent:  "#bd93f9", // purple
		Success: "#50fa7b", // green
		Warning: "#f1fa8c", // yellow
		Danger:  "#ff5555", // red

		SelectionBg:   "#44475a",
		SelectionText: "#f8f8f2",
	}
}

func nordTheme() Theme {
	// Nord palette: https://www.nordtheme.com/docs/colors-and-palettes
	return Theme{
		Name: "Nord",

		Text:    "#eceff4", // nord6
		Muted:   "#616e88", // comment variant
		Accent:  "#88c0d0", // nord8
		Success: "#a3be8c", // nord14
		Warning: "#ebcb8b", // nord13
		Danger:  "#bf616a", // nord11

		SelectionBg:   "#434c5e", // nord2
		SelectionText: "#eceff4",
	}
}

func slateTheme() Theme {
	// Neutral gray palette for low-color terminals.
	return Theme{
		Name: "Slate",

		Text:    "#e2e8f0",
		Muted:   "#7c8ba1",
		Accent:  "#7dd3fc",
		Success: "#86efac",
		Warning: "#fde047",
		Danger:  "#f87171",

		SelectionBg:   "#334155",
		SelectionText: "#f1f5f9",
	}
}
