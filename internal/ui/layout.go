package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the detail pane is hidden.
	LayoutCompactWidth = 80

	// LayoutWideWidth is the minimum width to show the API base in the header.
	LayoutWideWidth = 140
)

// Log display limits.
const (
	// LogBufferLimit is the maximum number of log lines read from disk.
	LogBufferLimit = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is the default tick used for log following.
	DefaultUIInterval = time.Second

	// EditTimeout bounds a single save, including any image upload.
	EditTimeout = 60 * time.Second

	// RefreshTimeout bounds a user-triggered refresh.
	RefreshTimeout = 20 * time.Second
)

// Stat bar maxima.
const (
	maxHP      = 600
	maxDamage  = 300
	maxDefense = 200
)
