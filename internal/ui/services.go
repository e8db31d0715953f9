package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nezhatop/nezhatop/internal/nezha"
	"github.com/nezhatop/nezhatop/internal/state"
)

// serviceState holds the uptime overview, loaded each time the view opens.
type serviceState struct {
	loading     state.LoadingState
	rows        []serviceRow
	selectedRow int
}

type serviceRow struct {
	ID     string
	Status nezha.ServiceStatus
}

type servicesMsg struct {
	overview nezha.ServiceOverview
	err      error
}

func fetchServicesCmd(parent context.Context, src ServiceSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, fetchTimeout)
		defer cancel()
		overview, err := src.ServiceOverview(ctx)
		return servicesMsg{overview: overview, err: err}
	}
}

// serviceRows flattens the overview map into rows ordered by name.
func serviceRows(overview nezha.ServiceOverview) []serviceRow {
	rows := make([]serviceRow, 0, len(overview.Services))
	for id, status := range overview.Services {
		rows = append(rows, serviceRow{ID: id, Status: status})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := strings.ToLower(rows[i].Status.ServiceName), strings.ToLower(rows[j].Status.ServiceName)
		if a != b {
			return a < b
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}

func (m *Model) handleServices(msg servicesMsg) {
	if msg.err != nil {
		m.serviceView.loading = m.serviceView.loading.Next(state.Event{
			Kind:    state.EventFailed,
			Message: nezha.UserMessage(msg.err),
		})
		m.logger.Debug("service overview failed", zap.Error(msg.err))
		return
	}
	m.serviceView.loading = m.serviceView.loading.Next(state.Event{Kind: state.EventSucceeded})
	m.serviceView.rows = serviceRows(msg.overview)
	if m.serviceView.selectedRow >= len(m.serviceView.rows) {
		m.serviceView.selectedRow = max(len(m.serviceView.rows)-1, 0)
	}
}

func (m Model) handleServicesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.serviceView.rows)
	if count == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		m.serviceView.selectedRow = min(m.serviceView.selectedRow+1, count-1)
	case key.Matches(msg, m.keys.Up):
		m.serviceView.selectedRow = max(m.serviceView.selectedRow-1, 0)
	case key.Matches(msg, m.keys.Top):
		m.serviceView.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.serviceView.selectedRow = count - 1
	}
	return m, nil
}

// renderServices renders the uptime table.
func (m Model) renderServices() string {
	styles := m.theme.Styles()
	contentHeight := m.height - 2
	sv := m.serviceView

	title := fmt.Sprintf("Services (%d)", len(sv.rows))
	if sv.loading.Phase == state.PhaseLoading {
		title += " loading"
	}

	var body string
	switch {
	case m.services == nil:
		body = styles.MutedText.Render("Service overview is not available")
	case sv.loading.Phase == state.PhaseError && len(sv.rows) == 0:
		body = styles.DangerText.Render(sv.loading.Message)
	case len(sv.rows) == 0 && sv.loading.Phase == state.PhaseLoaded:
		body = styles.MutedText.Render("No services configured")
	case len(sv.rows) == 0:
		body = styles.MutedText.Render("Loading services...")
	default:
		body = m.renderServiceTable(m.width-2, contentHeight-2)
	}
	return m.renderTitledBox(title, body, m.width, contentHeight, true)
}

func (m Model) renderServiceTable(width, height int) string {
	sv := m.serviceView
	styles := m.theme.Styles()
	historyWidth := 30
	nameWidth := max(width-historyWidth-30, 10)

	header := padRight("Service", nameWidth) + "  " + padLeft("Uptime", 8) + "  " +
		padLeft("Delay", 9) + "  " + "30 days"
	lines := []string{styles.MutedText.Bold(true).Render(header)}

	start := 0
	if rows := height - 1; rows > 0 && sv.selectedRow >= rows {
		start = sv.selectedRow - rows + 1
	}
	for i := start; i < len(sv.rows) && len(lines) < height; i++ {
		row := sv.rows[i]
		selected := i == sv.selectedRow
		bgColor := m.theme.FocusBg
		if selected {
			bgColor = m.theme.SelectionBg
		}
		bg := NewBgStyle(bgColor)
		textStyle := styles.Text
		if selected {
			textStyle = styles.Selected
		}

		uptime := row.Status.Uptime()
		uptimeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.GaugeColor(100 - uptime)))
		delay := "-"
		if n := len(row.Status.Delay); n > 0 {
			delay = fmt.Sprintf("%.0fms", row.Status.Delay[n-1])
		}

		line := bg.Render(padRight(truncate(row.Status.ServiceName, nameWidth), nameWidth), textStyle) +
			bg.Spaces(2) + bg.Render(padLeft(fmt.Sprintf("%.2f%%", uptime), 8), uptimeStyle) +
			bg.Spaces(2) + bg.Render(padLeft(delay, 9), textStyle) +
			bg.Spaces(2) + m.renderUptimeDays(row.Status, historyWidth, bg)
		lines = append(lines, bg.FillLine(line, width))
	}
	return strings.Join(lines, "\n")
}

// renderUptimeDays draws one cell per day: green when fully up, red when
// mostly down, amber otherwise and faint with no data.
func (m Model) renderUptimeDays(status nezha.ServiceStatus, width int, bg BgStyle) string {
	days := min(len(status.Up), len(status.Down))
	if days == 0 {
		return ""
	}
	startDay := max(days-width, 0)
	var b strings.Builder
	for i := startDay; i < days; i++ {
		up, down := status.Up[i], status.Down[i]
		color := m.theme.Faint
		switch {
		case up+down == 0:
		case down == 0:
			color = m.theme.Success
		case down > up:
			color = m.theme.Danger
		default:
			color = m.theme.Warning
		}
		b.WriteString(bg.Render("▮", lipgloss.NewStyle().Foreground(lipgloss.Color(color))))
	}
	return b.String()
}
