package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nezhatop/nezhatop/internal/nezha"
	"github.com/nezhatop/nezhatop/internal/state"
)

// renderHeader renders the status bar: loading state, online count, data
// age and the last error.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	snap := m.snapshot
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("nezhatop", styles.Logo)}

	phase := snap.State.Phase.String()
	badge := styles.StatusStyle(phase).Render(strings.ToUpper(phase))
	parts = append(parts, badge)

	if snap.IsOffline() {
		parts = append(parts, styles.StatusStyle("offline").Render("OFFLINE"))
	}

	total := len(snap.Servers)
	online := snap.Online(m.now(), m.onlineWindow)
	onlineStyle := styles.SuccessText
	if online < total {
		onlineStyle = styles.WarningText
	}
	parts = append(parts,
		bg.Render("Online:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", online, total), onlineStyle))

	if !snap.LastUpdated.IsZero() {
		parts = append(parts,
			bg.Render("Updated:", styles.MutedText)+bg.Space()+
				bg.Render(snap.LastUpdated.Local().Format("15:04:05"), styles.Text))
	}
	if !compact {
		if seen := lastSeen(snap.Servers); !seen.IsZero() {
			parts = append(parts,
				bg.Render("Last report:", styles.MutedText)+bg.Space()+
					bg.Render(seenAgo(seen, m.now()), styles.InfoText))
		}
	}

	if snap.LastError != nil {
		msg := nezha.UserMessage(snap.LastError)
		if snap.State.Phase == state.PhaseError && snap.State.Message != "" {
			msg = snap.State.Message
		}
		limit := 60
		if compact {
			limit = 30
		}
		errPart := bg.Render(truncate(msg, limit), styles.DangerText)
		if snap.ConsecutiveFailures > 1 {
			errPart += bg.Space() + bg.Render(fmt.Sprintf("(x%d)", snap.ConsecutiveFailures), styles.MutedText)
		}
		parts = append(parts, errPart)
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the key hints with the active view highlighted.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning))

	hint := func(k, label string, active bool) string {
		labelStyle := styles.MutedText
		if active {
			labelStyle = styles.AccentText.Bold(true)
		}
		return bg.Render("<"+k+">", keyStyle) + bg.Render(label, labelStyle)
	}

	parts := []string{
		hint("1", "Servers", m.currentView == ViewServers),
		hint("2", "Services", m.currentView == ViewServices),
		hint("3", "Logs", m.currentView == ViewLogs),
		hint("r", "Refresh", false),
	}
	switch m.currentView {
	case ViewServers:
		parts = append(parts, hint("s", "Sort:"+m.serverState.sort.String(), false))
	case ViewLogs:
		parts = append(parts, hint("/", "Search", false), hint("L", "Level", false))
	}
	parts = append(parts,
		hint("T", "Theme", false),
		hint("?", "Help", false),
		hint("q", "Quit", false),
	)
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}
