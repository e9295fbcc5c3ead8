package ui

import "time"

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconPlay     = "▶"
	IconStop     = "⏹"
	IconWait     = "⏳"
	IconDone     = "✔"
	IconFolder   = "📁"
	IconRetry    = "↻"
	IconClose    = "×"
	IconError    = "❌"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%d%%"
)

// Layout sizing
const (
	RowMinWidth  float32 = 400
	RowMinHeight float32 = 80

	WindowWidth  float32 = 800
	WindowHeight float32 = 600
)

// UIUpdateDebounce throttles list redraws for progress-only updates
const UIUpdateDebounce = 100 * time.Millisecond

// Dialog sizing
const (
	SettingsDialogWidth  float32 = 500
	SettingsDialogHeight float32 = 420

	HistoryDialogWidth  float32 = 640
	HistoryDialogHeight float32 = 420
)

// HistoryDialogLimit caps the entries shown in the history dialog
const HistoryDialogLimit = 200
