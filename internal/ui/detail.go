package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nezhatop/nezhatop/internal/nezha"
)

// renderServerDetail renders the detail pane for one server.
func (m Model) renderServerDetail(srv nezha.Server, width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	labelWidth := 10
	barWidth := max(min(width-labelWidth-24, 30), 5)

	var lines []string
	add := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		lines = append(lines,
			bg.Render(padRight(label, labelWidth), styles.MutedText)+bg.Render(truncate(value, width-labelWidth), styles.Text))
	}
	gauge := func(label string, percent float64, suffix string) {
		color := lipgloss.Color(m.theme.GaugeColor(percent))
		bar := bg.Render(percentBar(percent, barWidth), lipgloss.NewStyle().Foreground(color))
		text := fmt.Sprintf(" %5.1f%%", clampPercent(percent))
		if suffix != "" {
			text += "  " + suffix
		}
		lines = append(lines,
			bg.Render(padRight(label, labelWidth), styles.MutedText)+bar+bg.Render(text, styles.Text))
	}
	section := func(title string) {
		lines = append(lines, "", bg.Render(title, styles.AccentText.Bold(true)))
	}

	now := m.now()
	status := bg.Render("offline", styles.DangerText)
	if srv.Online(now, m.onlineWindow) {
		status = bg.Render("online", styles.SuccessText)
	}
	lines = append(lines, bg.Render(srv.Name, styles.Text.Bold(true))+bg.Spaces(2)+status)
	add("ID", fmt.Sprintf("%d", srv.ID))
	if !srv.LastActive.IsZero() {
		add("Seen", seenAgo(srv.LastActive, now))
	}
	add("Note", srv.PublicNote)

	section("System")
	platform := strings.TrimSpace(srv.Host.Platform + " " + srv.Host.PlatformVersion)
	add("OS", platform)
	add("Arch", srv.Host.Arch)
	add("Virt", srv.Host.Virtualization)
	if len(srv.Host.CPU) > 0 {
		add("CPU", srv.Host.CPU[0])
	}
	if len(srv.Host.GPU) > 0 {
		add("GPU", strings.Join(srv.Host.GPU, ", "))
	}
	if srv.State.Uptime > 0 {
		add("Uptime", FormatUptime(srv.State.Uptime))
	}
	add("Agent", srv.Host.Version)

	section("Usage")
	gauge("CPU", srv.State.CPU, fmt.Sprintf("load %.2f %.2f %.2f", srv.State.Load1, srv.State.Load5, srv.State.Load15))
	gauge("Memory", srv.MemPercent(), humanize.IBytes(srv.State.MemUsed)+" / "+humanize.IBytes(srv.Host.MemTotal))
	if srv.Host.SwapTotal > 0 {
		gauge("Swap", srv.SwapPercent(), humanize.IBytes(srv.State.SwapUsed)+" / "+humanize.IBytes(srv.Host.SwapTotal))
	}
	gauge("Disk", srv.DiskPercent(), humanize.IBytes(srv.State.DiskUsed)+" / "+humanize.IBytes(srv.Host.DiskTotal))
	for i, load := range srv.State.GPU {
		gauge(fmt.Sprintf("GPU %d", i), load, "")
	}

	section("Network")
	add("Speed", "↓ "+formatSpeed(srv.State.NetInSpeed)+"  ↑ "+formatSpeed(srv.State.NetOutSpeed))
	add("Traffic", "↓ "+humanize.IBytes(srv.State.NetInTransfer)+"  ↑ "+humanize.IBytes(srv.State.NetOutTransfer))
	add("Conns", fmt.Sprintf("tcp %d  udp %d  procs %d", srv.State.TCPConnCount, srv.State.UDPConnCount, srv.State.ProcessCount))

	if len(srv.State.Temperatures) > 0 {
		section("Sensors")
		for _, t := range srv.State.Temperatures {
			add(truncate(t.Name, labelWidth-1), fmt.Sprintf("%.1f°C", t.Temperature))
		}
	}

	if m.history != nil {
		section("CPU history")
		lines = append(lines, m.renderCPUHistory(srv.ID, width, styles, bg))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCPUHistory(serverID uint64, width int, styles Styles, bg BgStyle) string {
	st := m.serverState
	switch {
	case st.seriesFor != serverID:
		return bg.Render("loading...", styles.FaintText)
	case st.seriesErr != nil:
		return bg.Render("unavailable: "+st.seriesErr.Error(), styles.WarningText)
	case len(st.cpuSeries) == 0:
		return bg.Render("no samples yet", styles.FaintText)
	}
	spark := sparkline(st.cpuSeries, min(width, historyPoints), 100)
	last := st.cpuSeries[len(st.cpuSeries)-1]
	return bg.Render(spark, styles.InfoText) + bg.Spaces(2) +
		bg.Render(fmt.Sprintf("%.0f%% over %d samples", last, len(st.cpuSeries)), styles.MutedText)
}

// lastSeen is used by the header for the newest agent report.
func lastSeen(servers []nezha.Server) time.Time {
	var newest time.Time
	for _, srv := range servers {
		if srv.LastActive.After(newest) {
			newest = srv.LastActive
		}
	}
	return newest
}
