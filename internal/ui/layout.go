package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the table drops the
	// network column and the header shortens.
	LayoutCompactWidth = 100

	// LayoutExtraWideWidth is the threshold for the narrower table pane.
	LayoutExtraWideWidth = 160
)

// Log display limits.
const (
	// LogTailLines is the number of log file lines read per refresh.
	LogTailLines = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is the default snapshot refresh interval.
	DefaultUIInterval = time.Second

	// DefaultOnlineWindow is how recently an agent must have reported to
	// count as online.
	DefaultOnlineWindow = 30 * time.Second

	// fetchTimeout bounds the UI's own backend and history reads.
	fetchTimeout = 5 * time.Second

	// historyPoints is the number of samples drawn in the CPU sparkline.
	historyPoints = 60
)
