package themes

import (
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the history browser and dashboard.
type Theme struct {
	Selected      lipgloss.Style
	StatusPending lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	Italic        lipgloss.Style
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	RoundedBox    lipgloss.Style
	Header        lipgloss.Style
	Box           lipgloss.Style
	BorderedBox   lipgloss.Style
	Primary       lipgloss.Color
	Accent        lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Background    lipgloss.Color
	Info          lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Success       lipgloss.Color
}

// palette is the handful of colors a theme is derived from.
type palette struct {
	primary    lipgloss.Color
	accent     lipgloss.Color
	success    lipgloss.Color
	warning    lipgloss.Color
	danger     lipgloss.Color
	info       lipgloss.Color
	background lipgloss.Color
	foreground lipgloss.Color
	dimmed     lipgloss.Color
	border     lipgloss.Color
	muted      lipgloss.Color
	// onPrimary is the text color on a primary background.
	onPrimary lipgloss.Color
}

func build(p palette) Theme {
	text := lipgloss.NewStyle().Foreground(p.foreground)
	status := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	boxed := func(b lipgloss.Border) lipgloss.Style {
		return lipgloss.NewStyle().Border(b).BorderForeground(p.border).Padding(1, 2)
	}

	return Theme{
		Primary:    p.primary,
		Accent:     p.accent,
		Success:    p.success,
		Warning:    p.warning,
		Error:      p.danger,
		Info:       p.info,
		Background: p.background,
		Foreground: p.foreground,
		Border:     p.border,
		Muted:      p.muted,

		Title:    text.Bold(true).MarginBottom(1),
		Subtitle: lipgloss.NewStyle().Foreground(p.dimmed).MarginBottom(1),
		Normal:   text,
		Bold:     text.Bold(true),
		Italic:   text.Italic(true),
		Selected: lipgloss.NewStyle().Background(p.primary).Foreground(p.onPrimary).Bold(true),
		Header:   lipgloss.NewStyle().Bold(true).Foreground(p.accent).Padding(0, 1),

		Box:         lipgloss.NewStyle().Padding(1, 2),
		BorderedBox: boxed(lipgloss.NormalBorder()),
		RoundedBox:  boxed(lipgloss.RoundedBorder()),

		StatusSuccess: status(p.success),
		StatusWarning: status(p.warning),
		StatusError:   status(p.danger),
		StatusInfo:    status(p.info),
		StatusPending: lipgloss.NewStyle().Foreground(p.muted).Italic(true),
	}
}

// Default is the default theme.
var Default = build(palette{
	primary:    "#7c3aed",
	accent:     "#a78bfa",
	success:    "#10b981",
	warning:    "#f59e0b",
	danger:     "#ef4444",
	info:       "#3b82f6",
	background: "#1a1a1a",
	foreground: "#fafafa",
	dimmed:     "#a3a3a3",
	border:     "#404040",
	muted:      "#737373",
	onPrimary:  "#fafafa",
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(palette{
	primary:    "#cba6f7",
	accent:     "#f5c2e7",
	success:    "#a6e3a1",
	warning:    "#f9e2af",
	danger:     "#f38ba8",
	info:       "#89dceb",
	background: "#1e1e2e",
	foreground: "#cdd6f4",
	dimmed:     "#a6adc8",
	border:     "#45475a",
	muted:      "#6c7086",
	onPrimary:  "#1e1e2e",
})

var byName = map[string]Theme{
	"default":          Default,
	"catppuccin-mocha": CatppuccinMocha,
}

// GetTheme returns a theme by name, falling back to Default.
func GetTheme(name string) Theme {
	if t, ok := byName[name]; ok {
		return t
	}
	return Default
}

// Names lists the selectable themes.
func Names() []string {
	return []string{"default", "catppuccin-mocha"}
}

// StatusStyle returns the style used to render a transaction status.
// Completed trips read as success, unloaded as info, in-transit as warning.
func (t Theme) StatusStyle(status model.Status) lipgloss.Style {
	switch status {
	case model.StatusCompleted:
		return t.StatusSuccess
	case model.StatusUnloaded:
		return t.StatusInfo
	case model.StatusInTransit:
		return t.StatusWarning
	default:
		return t.StatusPending
	}
}
