package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/ytgrab/internal/model"
)

// compactSizes shrink the default theme so more task rows fit the window
var compactSizes = map[fyne.ThemeSizeName]float32{
	theme.SizeNamePadding:      3,
	theme.SizeNameInnerPadding: 6,
	theme.SizeNameLineSpacing:  2,
	theme.SizeNameText:         13,
	theme.SizeNameHeadingText:  16,
	theme.SizeNameCaptionText:  10,
	theme.SizeNameInputRadius:  3,
}

// statusColors recolor the importance levels used by status labels
var statusColors = map[fyne.ThemeColorName]color.Color{
	theme.ColorNameSuccess: color.RGBA{R: 46, G: 160, B: 67, A: 255},
	theme.ColorNameError:   color.RGBA{R: 183, G: 28, B: 28, A: 255},
	theme.ColorNameWarning: color.RGBA{R: 230, G: 145, B: 0, A: 255},
	theme.ColorNamePrimary: color.RGBA{R: 25, G: 118, B: 210, A: 255},
}

// CompactTheme wraps the default theme with smaller sizes and status colors.
type CompactTheme struct {
	fyne.Theme
}

// NewCompactTheme creates a new compact theme
func NewCompactTheme() fyne.Theme {
	return &CompactTheme{Theme: theme.DefaultTheme()}
}

// Color returns theme colors
func (t *CompactTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if c, ok := statusColors[name]; ok {
		return c
	}
	return t.Theme.Color(name, variant)
}

// Size returns theme sizes with compact adjustments
func (t *CompactTheme) Size(name fyne.ThemeSizeName) float32 {
	if s, ok := compactSizes[name]; ok {
		return s
	}
	return t.Theme.Size(name)
}

// phaseImportance maps a transfer phase to the status label color
func phaseImportance(p model.Phase) widget.Importance {
	switch p {
	case model.PhaseFinished:
		return widget.SuccessImportance
	case model.PhaseFailed:
		return widget.DangerImportance
	case model.PhaseCancelled:
		return widget.WarningImportance
	case model.PhaseConnecting, model.PhaseDownloading, model.PhasePostprocessing:
		return widget.HighImportance
	default:
		return widget.MediumImportance
	}
}

// phaseIcon prefixes status labels
func phaseIcon(p model.Phase) string {
	switch p {
	case model.PhaseFinished:
		return IconDone
	case model.PhaseFailed:
		return IconError
	case model.PhaseCancelled:
		return IconStop
	case model.PhaseConnecting, model.PhaseDownloading, model.PhasePostprocessing:
		return IconPlay
	default:
		return IconWait
	}
}
