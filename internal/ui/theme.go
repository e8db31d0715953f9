package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the color set the dashboard views paint with. Colors are hex
// strings so views can hand them straight to lipgloss.Color.
type Theme struct {
	Name string

	Background string // terminal fill behind every panel
	Surface    string // header bar
	SurfaceAlt string // detail pane
	FocusBg    string // table interiors

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// StateColors maps a server or loading state to its badge color.
	StateColors map[string]string

	// Usage bar colors, in increasing severity.
	GaugeLow  string
	GaugeMid  string
	GaugeHigh string
}

// palette is the handful of colors a theme is derived from. Badges and
// gauges reuse the semantic colors so a theme only names each hue once.
type palette struct {
	bg, surface, surfaceAlt, focus string
	selBg, selFg                   string
	border, borderFocus            string
	fg, muted, faint               string
	blue, green, yellow, red, cyan string
	orange                         string // error badge
	loaded                         string // loaded badge; blue when empty
}

func (p palette) theme(name string) Theme {
	loaded := p.loaded
	if loaded == "" {
		loaded = p.blue
	}
	return Theme{
		Name:          name,
		Background:    p.bg,
		Surface:       p.surface,
		SurfaceAlt:    p.surfaceAlt,
		FocusBg:       p.focus,
		SelectionBg:   p.selBg,
		SelectionText: p.selFg,
		Border:        p.border,
		BorderFocus:   p.borderFocus,
		Text:          p.fg,
		Muted:         p.muted,
		Faint:         p.faint,
		Accent:        p.blue,
		Success:       p.green,
		Warning:       p.yellow,
		Danger:        p.red,
		Info:          p.cyan,
		StateColors: map[string]string{
			"online":  p.green,
			"offline": p.red,
			"loading": p.cyan,
			"loaded":  loaded,
			"error":   p.orange,
			"idle":    p.faint,
		},
		GaugeLow:  p.green,
		GaugeMid:  p.yellow,
		GaugeHigh: p.red,
	}
}

// Styles holds the lipgloss styles the header, tables, detail pane and log
// view render with.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style // connection and fleet summary bar
	Logo     lipgloss.Style
	Selected lipgloss.Style // highlighted table row or log match

	statusColors map[string]string
	background   string
	muted        string
}

// Styles builds the styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header: fg(t.Text).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Logo:   fg(t.Warning).Bold(true),
		Selected: fg(t.SelectionText).
			Background(lipgloss.Color(t.SelectionBg)),

		statusColors: t.StateColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// StatusStyle returns the badge style for a server or loading state.
// Unknown states fall back to the muted color.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color := s.statusColors[status]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// GaugeColor picks the bar color for a usage percentage.
func (t Theme) GaugeColor(percent float64) string {
	switch {
	case percent >= 90:
		return t.GaugeHigh
	case percent >= 70:
		return t.GaugeMid
	default:
		return t.GaugeLow
	}
}

// WithBackground paints every style on bgColor so rendered segments inside
// a panel don't fall back to the terminal background.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Header, &out.Logo, &out.Selected,
	} {
		*st = st.Background(bg)
	}
	return out
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

var themes = map[string]Theme{
	// https://github.com/EdenEast/nightfox.nvim
	"Nightfox": palette{
		bg: "#131a24", surface: "#192330", surfaceAlt: "#212e3f", focus: "#29394f",
		selBg: "#2b3b51", selFg: "#cdcecf",
		border: "#39506d", borderFocus: "#719cd6",
		fg: "#cdcecf", muted: "#738091", faint: "#71839b",
		blue: "#719cd6", green: "#81b29a", yellow: "#dbc074", red: "#c94f6d", cyan: "#63cdcf",
		orange: "#f4a261",
	}.theme("Nightfox"),

	// https://github.com/rebelot/kanagawa.nvim
	"Kanagawa": palette{
		bg: "#16161D", surface: "#1F1F28", surfaceAlt: "#2A2A37", focus: "#2A2A37",
		selBg: "#2D4F67", selFg: "#DCD7BA",
		border: "#54546D", borderFocus: "#7E9CD8",
		fg: "#DCD7BA", muted: "#C8C093", faint: "#727169",
		blue: "#7E9CD8", green: "#98BB6C", yellow: "#E6C384", red: "#E46876", cyan: "#7FB4CA",
		orange: "#FFA066",
	}.theme("Kanagawa"),

	// Tailwind slate and sky.
	"Slate": palette{
		bg: "#020617", surface: "#0f172a", surfaceAlt: "#1e293b", focus: "#283548",
		selBg: "#0284c7", selFg: "#f8fafc",
		border: "#334155", borderFocus: "#38bdf8",
		fg: "#f1f5f9", muted: "#94a3b8", faint: "#64748b",
		blue: "#38bdf8", green: "#22c55e", yellow: "#f59e0b", red: "#ef4444", cyan: "#06b6d4",
		orange: "#f59e0b", loaded: "#0284c7",
	}.theme("Slate"),
}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the theme after current in the `T` key cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns the available themes in cycle order.
func ThemeNames() []string {
	return themeOrder
}
