package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	want := []string{"Nightfox", "Kanagawa", "Slate"}
	if len(names) != len(want) {
		t.Fatalf("ThemeNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ThemeNames() = %v, want %v", names, want)
		}
	}
}

func TestNextTheme(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Nightfox", "Kanagawa"},
		{"Kanagawa", "Slate"},
		{"Slate", "Nightfox"},
		{"Unknown", "Nightfox"},
	}
	for _, tt := range tests {
		if got := NextTheme(tt.in); got != tt.want {
			t.Fatalf("NextTheme(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetTheme_FallsBackToNightfox(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q", got)
	}
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Dracula).Name = %q, want Nightfox", got)
	}
}

func TestThemesDefineStateColors(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, st := range []string{"online", "offline", "idle", "loading", "loaded", "error"} {
			if th.StateColors[st] == "" {
				t.Errorf("%s: missing state color %q", name, st)
			}
		}
	}
}

func TestGaugeColor(t *testing.T) {
	th := GetTheme("Nightfox")
	if got := th.GaugeColor(10); got != th.GaugeLow {
		t.Fatalf("GaugeColor(10) = %q, want low", got)
	}
	if got := th.GaugeColor(75); got != th.GaugeMid {
		t.Fatalf("GaugeColor(75) = %q, want mid", got)
	}
	if got := th.GaugeColor(95); got != th.GaugeHigh {
		t.Fatalf("GaugeColor(95) = %q, want high", got)
	}
}

func TestWithBackground_RepaintsEveryStyle(t *testing.T) {
	th := GetTheme("Kanagawa")
	styles := th.Styles().WithBackground(th.SurfaceAlt)

	want := lipgloss.Color(th.SurfaceAlt)
	for name, st := range map[string]lipgloss.Style{
		"Text":     styles.Text,
		"InfoText": styles.InfoText,
		"Header":   styles.Header,
		"Logo":     styles.Logo,
		"Selected": styles.Selected,
	} {
		if got := st.GetBackground(); got != want {
			t.Errorf("%s background = %v, want %v", name, got, want)
		}
	}
	if got := styles.Selected.GetForeground(); got != lipgloss.Color(th.SelectionText) {
		t.Fatalf("Selected foreground = %v, want selection text", got)
	}
}

func TestStatusStyle_UnknownStateUsesMuted(t *testing.T) {
	th := GetTheme("Nightfox")
	if got := th.Styles().StatusStyle("rebooting").GetBackground(); got != lipgloss.Color(th.Muted) {
		t.Fatalf("badge background = %v, want muted", got)
	}
	if got := th.Styles().StatusStyle("online").GetBackground(); got != lipgloss.Color(th.StateColors["online"]) {
		t.Fatalf("online badge background = %v", got)
	}
}
