package ui

import (
	"testing"
	"time"
)

func TestFormatSpeed(t *testing.T) {
	if got := formatSpeed(2048); got != "2.0 KiB/s" {
		t.Fatalf("formatSpeed = %q", got)
	}
	if got := formatSpeed(0); got != "0 B/s" {
		t.Fatalf("formatSpeed(0) = %q", got)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "-"},
		{30, "0m"},
		{5 * 60, "5m"},
		{4*3600 + 5*60, "4h 5m"},
		{3*86400 + 4*3600, "3d 4h"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.in); got != tt.want {
			t.Errorf("FormatUptime(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSeenAgo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		then time.Time
		want string
	}{
		{now.Add(time.Second), "now"},
		{now, "now"},
		{now.Add(-10 * time.Second), "10 seconds ago"},
		{now.Add(-5 * time.Minute), "5 minutes ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-50 * time.Hour), "2 days ago"},
	}
	for _, tt := range tests {
		if got := seenAgo(tt.then, now); got != tt.want {
			t.Errorf("seenAgo(%v) = %q, want %q", now.Sub(tt.then), got, tt.want)
		}
	}
}

func TestPercentBar(t *testing.T) {
	if got := percentBar(50, 10); got != "█████░░░░░" {
		t.Fatalf("percentBar(50) = %q", got)
	}
	if got := percentBar(150, 4); got != "████" {
		t.Fatalf("percentBar clamps high: %q", got)
	}
	if got := percentBar(-5, 4); got != "░░░░" {
		t.Fatalf("percentBar clamps low: %q", got)
	}
	if got := percentBar(50, 0); got != "" {
		t.Fatalf("percentBar zero width = %q", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := sparkline([]float64{0, 50, 100}, 10, 100); got != "▁▅█" {
		t.Fatalf("sparkline = %q, want ▁▅█", got)
	}
	// Only the newest width values are drawn.
	if got := sparkline([]float64{100, 0, 0}, 2, 100); got != "▁▁" {
		t.Fatalf("sparkline window = %q", got)
	}
	// Zero ceiling scales to the largest value.
	if got := sparkline([]float64{1, 2}, 5, 0); got != "▅█" {
		t.Fatalf("sparkline autoscale = %q", got)
	}
	if got := sparkline(nil, 5, 100); got != "" {
		t.Fatalf("sparkline empty = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  abcdef  ", 5); got != "ab..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 2); got != "ab" {
		t.Fatalf("truncate short limit = %q", got)
	}
	got := truncateMiddle("/var/log/nezhatop/nezhatop.log", 12)
	if len([]rune(got)) != 12 {
		t.Fatalf("truncateMiddle = %q (%d runes), want 12", got, len([]rune(got)))
	}
}
