package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nezhatop/nezhatop/internal/history"
	"github.com/nezhatop/nezhatop/internal/nezha"
)

// sortMode is the server table order.
type sortMode int

const (
	sortIndex sortMode = iota
	sortName
	sortCPU
	sortMem
)

var sortNames = []string{"index", "name", "cpu", "mem"}

func (s sortMode) String() string {
	if int(s) < len(sortNames) {
		return sortNames[s]
	}
	return sortNames[0]
}

func (s sortMode) next() sortMode {
	return (s + 1) % sortMode(len(sortNames))
}

func sortFromName(name string) sortMode {
	for i, n := range sortNames {
		if n == name {
			return sortMode(i)
		}
	}
	return sortIndex
}

// serverState holds the servers view selection and the CPU history of the
// selected server.
type serverState struct {
	sort        sortMode
	selectedRow int
	selectedID  uint64

	cpuSeries []float64
	seriesFor uint64
	seriesErr error
}

type historyMsg struct {
	serverID uint64
	samples  []history.Sample
	err      error
}

// sortServers returns a sorted copy of servers. The index order matches the
// dashboard: higher display_index first, then id.
func sortServers(servers []nezha.Server, mode sortMode) []nezha.Server {
	out := make([]nezha.Server, len(servers))
	copy(out, servers)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch mode {
		case sortName:
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if an != bn {
				return an < bn
			}
		case sortCPU:
			if a.State.CPU != b.State.CPU {
				return a.State.CPU > b.State.CPU
			}
		case sortMem:
			if am, bm := a.MemPercent(), b.MemPercent(); am != bm {
				return am > bm
			}
		default:
			if a.DisplayIndex != b.DisplayIndex {
				return a.DisplayIndex > b.DisplayIndex
			}
		}
		return a.ID < b.ID
	})
	return out
}

func (m *Model) sortedServers() []nezha.Server {
	return sortServers(m.snapshot.Servers, m.serverState.sort)
}

func (m *Model) selectedServer() *nezha.Server {
	servers := m.sortedServers()
	if len(servers) == 0 {
		return nil
	}
	row := min(m.serverState.selectedRow, len(servers)-1)
	return &servers[row]
}

// clampSelection keeps the selection on the same server id when the list
// changes, falling back to clamping the row.
func (m *Model) clampSelection() {
	servers := m.sortedServers()
	if len(servers) == 0 {
		m.serverState.selectedRow = 0
		m.serverState.selectedID = 0
		return
	}
	if id := m.serverState.selectedID; id != 0 {
		for i, srv := range servers {
			if srv.ID == id {
				m.serverState.selectedRow = i
				return
			}
		}
	}
	if m.serverState.selectedRow >= len(servers) {
		m.serverState.selectedRow = len(servers) - 1
	}
	m.serverState.selectedID = servers[m.serverState.selectedRow].ID
}

func (m Model) handleServersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.CycleSort) {
		m.serverState.sort = m.serverState.sort.next()
		m.clampSelection()
		m.savePrefs()
		return m, nil
	}

	count := len(m.snapshot.Servers)
	if count == 0 {
		return m, nil
	}
	row := m.serverState.selectedRow
	switch {
	case key.Matches(msg, m.keys.Down):
		row = min(row+1, count-1)
	case key.Matches(msg, m.keys.Up):
		row = max(row-1, 0)
	case key.Matches(msg, m.keys.Top):
		row = 0
	case key.Matches(msg, m.keys.Bottom):
		row = count - 1
	case key.Matches(msg, m.keys.HalfPageDown), key.Matches(msg, m.keys.PageDown):
		row = min(row+m.tableRows()/2, count-1)
	case key.Matches(msg, m.keys.HalfPageUp), key.Matches(msg, m.keys.PageUp):
		row = max(row-m.tableRows()/2, 0)
	default:
		return m, nil
	}
	if row == m.serverState.selectedRow {
		return m, nil
	}
	m.serverState.selectedRow = row
	m.serverState.selectedID = m.sortedServers()[row].ID
	return m, m.refreshHistory()
}

func (m *Model) tableRows() int {
	return max(m.height-4, 1)
}

// refreshHistory loads the CPU series of the selected server.
func (m *Model) refreshHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	srv := m.selectedServer()
	if srv == nil {
		return nil
	}
	return fetchHistoryCmd(m.ctx, m.history, srv.ID)
}

func fetchHistoryCmd(parent context.Context, src HistorySource, serverID uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, fetchTimeout)
		defer cancel()
		samples, err := src.Recent(ctx, serverID, historyPoints)
		return historyMsg{serverID: serverID, samples: samples, err: err}
	}
}

func (m *Model) handleHistory(msg historyMsg) {
	if srv := m.selectedServer(); srv == nil || srv.ID != msg.serverID {
		return
	}
	m.serverState.seriesFor = msg.serverID
	m.serverState.seriesErr = msg.err
	series := make([]float64, 0, len(msg.samples))
	for _, s := range msg.samples {
		series = append(series, s.CPU)
	}
	m.serverState.cpuSeries = series
}

// renderServers renders the split servers view (table + detail).
func (m Model) renderServers() string {
	styles := m.theme.Styles()
	contentHeight := m.height - 2

	if len(m.snapshot.Servers) == 0 {
		msg := "No servers yet"
		if m.snapshot.LastError != nil {
			msg = "No servers: " + nezha.UserMessage(m.snapshot.LastError)
		}
		return lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, styles.MutedText.Render(msg))
	}

	tableWidth := m.width / 2
	if m.width >= LayoutExtraWideWidth {
		tableWidth = m.width * 40 / 100
	}
	detailWidth := m.width - tableWidth

	servers := m.sortedServers()
	title := fmt.Sprintf("Servers (%d) sort:%s", len(servers), m.serverState.sort)
	table := m.renderServerTable(servers, tableWidth-2, contentHeight-2)
	tablePane := m.renderTitledBox(title, table, tableWidth, contentHeight, true)

	detail := styles.MutedText.Render("Select a server")
	if srv := m.selectedServer(); srv != nil {
		detail = m.renderServerDetail(*srv, detailWidth-4)
	}
	detailPane := m.renderTitledBox("Details", detail, detailWidth, contentHeight, false)

	return lipgloss.JoinHorizontal(lipgloss.Top, tablePane, detailPane)
}

// renderServerTable renders the visible window of rows around the selection.
func (m Model) renderServerTable(servers []nezha.Server, width, height int) string {
	start := 0
	if height > 0 && m.serverState.selectedRow >= height {
		start = m.serverState.selectedRow - height + 1
	}
	end := len(servers)
	if height > 0 {
		end = min(end, start+height)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		selected := i == m.serverState.selectedRow
		bgColor := m.theme.FocusBg
		if selected {
			bgColor = m.theme.SelectionBg
		}
		row := m.formatServerRow(servers[i], width, bgColor, selected)
		lines = append(lines, lipgloss.NewStyle().Background(lipgloss.Color(bgColor)).Width(width).Render(row))
	}
	return strings.Join(lines, "\n")
}

// formatServerRow formats one table row: "● name  cpu%  mem%  ↓in ↑out".
func (m Model) formatServerRow(srv nezha.Server, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	online := srv.Online(m.now(), m.onlineWindow)
	dotColor := m.theme.StateColors["offline"]
	if online {
		dotColor = m.theme.StateColors["online"]
	}
	dot := bg.Render("●", lipgloss.NewStyle().Foreground(lipgloss.Color(dotColor)))

	cpu := padLeft(fmt.Sprintf("%.0f%%", clampPercent(srv.State.CPU)), 4)
	mem := padLeft(fmt.Sprintf("%.0f%%", clampPercent(srv.MemPercent())), 4)
	metrics := cpu + "  " + mem
	if m.width >= LayoutCompactWidth {
		metrics += "  ↓" + padLeft(formatSpeed(srv.State.NetInSpeed), 11) +
			" ↑" + padLeft(formatSpeed(srv.State.NetOutSpeed), 11)
	}
	nameWidth := max(width-len([]rune(metrics))-4, 8)
	name := padRight(truncate(srv.Name, nameWidth), nameWidth)

	textStyle := styles.Text
	metricStyle := styles.MutedText
	if selected {
		textStyle = styles.Selected
		metricStyle = textStyle
	}
	if !online && !selected {
		textStyle = styles.FaintText
	}
	return dot + bg.Space() + bg.Render(name, textStyle) + bg.Spaces(2) + bg.Render(metrics, metricStyle)
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColorStr, bgColorStr := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColorStr, bgColorStr = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := len([]rune(title))
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColorStr))
	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)
	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines, bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}
	return top + "\n" + strings.Join(lines, "\n") + "\n" + bottom
}
