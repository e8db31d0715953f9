package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nezhatop/nezhatop/internal/logtail"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// logState holds the log view state.
type logState struct {
	entries  []logtail.Entry
	lastErr  error
	follow   bool
	minLevel string
	dirty    bool

	// Search
	searchActive   bool
	searchQuery    string
	searchRegex    *regexp.Regexp
	searchInput    textinput.Model
	searchMatches  []int
	searchMatchIdx int
}

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

func nextLevel(current string) string {
	for i, l := range logLevels {
		if l == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

// refreshLogs tails the client's own log file.
func (m *Model) refreshLogs() tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	path, level := m.logPath, m.logState.minLevel
	return func() tea.Msg {
		entries, err := logtail.Tail(path, LogTailLines, level)
		return logsMsg{entries: entries, err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	m.logState.lastErr = msg.err
	if msg.err == nil {
		m.logState.entries = msg.entries
	}
	m.logState.dirty = true
	if m.logState.searchRegex != nil {
		m.findSearchMatches()
	}
	m.updateLogViewport()
}

// updateLogViewport resizes the viewport and re-renders changed content.
func (m *Model) updateLogViewport() {
	width, height := max(m.width-4, 1), max(m.height-5, 1)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(width, height)
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.logState.dirty {
		m.logViewport.SetContent(m.renderLogContent())
		m.logState.dirty = false
	}
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) renderLogContent() string {
	if len(m.logState.entries) == 0 {
		return m.theme.Styles().MutedText.Render("No log entries")
	}
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.FocusBg)
	matches := make(map[int]bool, len(m.logState.searchMatches))
	for _, i := range m.logState.searchMatches {
		matches[i] = true
	}

	lines := make([]string, 0, len(m.logState.entries))
	for i, entry := range m.logState.entries {
		text := entry.Format()
		style := levelStyle(entry.Level, styles)
		if matches[i] {
			lines = append(lines, styles.Selected.Render(text))
			continue
		}
		lines = append(lines, bg.Render(text, style))
	}
	return strings.Join(lines, "\n")
}

func levelStyle(level string, styles Styles) lipgloss.Style {
	switch strings.ToLower(level) {
	case "error", "dpanic", "panic", "fatal":
		return styles.DangerText
	case "warn":
		return styles.WarningText
	case "debug":
		return styles.FaintText
	default:
		return styles.Text
	}
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.FocusBg)
	contentHeight := m.height - 3

	if m.logPath == "" {
		return m.renderTitledBox("Log", styles.MutedText.Render("File logging is disabled"), m.width, contentHeight, true)
	}
	title := fmt.Sprintf("Log %s (>= %s)", truncateMiddle(m.logPath, 40), m.logState.minLevel)
	box := m.renderTitledBox(title, m.logViewport.View(), m.width, contentHeight, true)
	return box + "\n" + m.renderLogStatus(styles, bg)
}

func (m Model) renderLogStatus(styles Styles, bg BgStyle) string {
	ls := m.logState
	if ls.searchActive {
		return bg.Render("/", styles.AccentText) + ls.searchInput.View()
	}
	if ls.lastErr != nil {
		return bg.Render("read failed: "+ls.lastErr.Error(), styles.DangerText)
	}
	var parts []string
	if ls.follow {
		parts = append(parts, bg.Render("FOLLOW", styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("PAUSED", styles.WarningText))
	}
	parts = append(parts, bg.Render(fmt.Sprintf("%d lines", len(ls.entries)), styles.MutedText))
	if ls.searchRegex != nil {
		status := "no matches"
		if n := len(ls.searchMatches); n > 0 {
			status = fmt.Sprintf("%d/%d", ls.searchMatchIdx+1, n)
		}
		parts = append(parts,
			bg.Render("/"+ls.searchQuery, styles.AccentText)+bg.Space()+bg.Render(status, styles.WarningText))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.CycleLevel):
		m.logState.minLevel = nextLevel(m.logState.minLevel)
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.Search):
		m.logState.searchActive = true
		m.logState.searchInput.SetValue("")
		return m, m.logState.searchInput.Focus()

	case key.Matches(msg, m.keys.NextMatch):
		m.stepSearchMatch(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevMatch):
		m.stepSearchMatch(-1)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.logState.searchRegex != nil {
			m.clearLogSearch()
			m.updateLogViewport()
			return m, nil
		}
		return m.switchView(ViewServers)

	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logState.follow = true
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logViewport.HalfPageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.logViewport.PageUp()
	default:
		return m, nil
	}
	// Manual scrolling pauses follow mode.
	m.logState.follow = false
	return m, nil
}

// handleLogSearchInput handles keyboard input while the search prompt is open.
func (m Model) handleLogSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		query := m.logState.searchInput.Value()
		m.logState.searchActive = false
		m.logState.searchInput.Blur()
		if query == "" {
			return m, nil
		}
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
		}
		m.logState.searchRegex = re
		m.logState.searchQuery = query
		m.logState.follow = false
		m.findSearchMatches()
		m.scrollToSearchMatch()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.logState.searchActive = false
		m.logState.searchInput.Blur()
		m.logState.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.logState.searchInput, cmd = m.logState.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) clearLogSearch() {
	m.logState.searchRegex = nil
	m.logState.searchQuery = ""
	m.logState.searchMatches = nil
	m.logState.searchMatchIdx = 0
	m.logState.dirty = true
}

func (m *Model) findSearchMatches() {
	m.logState.searchMatches = searchEntries(m.logState.entries, m.logState.searchRegex)
	if m.logState.searchMatchIdx >= len(m.logState.searchMatches) {
		m.logState.searchMatchIdx = 0
	}
	m.logState.dirty = true
}

// searchEntries returns the indices of entries whose formatted line matches re.
func searchEntries(entries []logtail.Entry, re *regexp.Regexp) []int {
	if re == nil {
		return nil
	}
	var out []int
	for i, entry := range entries {
		if re.MatchString(entry.Format()) {
			out = append(out, i)
		}
	}
	return out
}

func (m *Model) stepSearchMatch(delta int) {
	n := len(m.logState.searchMatches)
	if n == 0 {
		return
	}
	m.logState.searchMatchIdx = (m.logState.searchMatchIdx + delta + n) % n
	m.logState.follow = false
	m.scrollToSearchMatch()
}

func (m *Model) scrollToSearchMatch() {
	if len(m.logState.searchMatches) == 0 {
		return
	}
	line := m.logState.searchMatches[m.logState.searchMatchIdx]
	m.logViewport.SetYOffset(max(line-m.logViewport.Height/2, 0))
}
