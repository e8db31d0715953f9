package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// formatSpeed renders a bytes-per-second rate.
func formatSpeed(bps uint64) string {
	return humanize.IBytes(bps) + "/s"
}

// FormatUptime renders agent uptime seconds as "3d 4h", "4h 5m" or "5m".
// Zero means the agent has not reported uptime and renders as "-".
func FormatUptime(seconds uint64) string {
	if seconds == 0 {
		return "-"
	}
	d := time.Duration(seconds) * time.Second
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// seenAgo renders how long before now then happened. Agent clocks running
// ahead of ours read as "now".
func seenAgo(then, now time.Time) string {
	if then.After(now) {
		then = now
	}
	return humanize.RelTime(then, now, "ago", "from now")
}

// clampPercent ensures percent is between 0 and 100.
func clampPercent(percent float64) float64 {
	if math.IsNaN(percent) || percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// percentBar draws a fixed-width usage bar.
func percentBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(clampPercent(percent) / 100 * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// sparkline draws the last width values scaled against ceiling. A ceiling of
// zero scales against the largest value shown.
func sparkline(values []float64, width int, ceiling float64) string {
	if width <= 0 || len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	if ceiling <= 0 {
		for _, v := range values {
			ceiling = math.Max(ceiling, v)
		}
	}
	top := len(sparkRunes) - 1
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if ceiling > 0 && v > 0 {
			idx = int(math.Round(math.Min(v, ceiling) / ceiling * float64(top)))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
