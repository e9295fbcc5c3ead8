package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/ytgrab/internal/history"
)

// HistoryStore is the part of the history store the window reads
type HistoryStore interface {
	List(limit int) ([]history.Entry, error)
	Clear() error
}

// historyLines returns one summary line per recorded download, newest first
func historyLines(store HistoryStore, limit int) ([]string, error) {
	if store == nil {
		return nil, nil
	}
	entries, err := store.List(limit)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Summary())
	}
	return lines, nil
}

func (ui *RootUI) onShowHistory() {
	l := ui.localization
	lines, err := historyLines(ui.history, HistoryDialogLimit)
	if err != nil {
		ui.logger.Warn().Err(err).Msg("failed to read history")
		ui.showNotification(err.Error())
		return
	}

	var content fyne.CanvasObject
	if len(lines) == 0 {
		content = widget.NewLabel(l.GetText(KeyHistoryEmpty))
	} else {
		content = widget.NewList(
			func() int { return len(lines) },
			func() fyne.CanvasObject {
				label := widget.NewLabel("")
				label.Truncation = fyne.TextTruncateEllipsis
				return label
			},
			func(id widget.ListItemID, item fyne.CanvasObject) {
				item.(*widget.Label).SetText(lines[id])
			},
		)
	}

	d := dialog.NewCustom(l.GetText(KeyHistory), l.GetText(KeyClose), content, ui.window)
	d.Resize(fyne.NewSize(HistoryDialogWidth, HistoryDialogHeight))
	d.Show()
}

func (ui *RootUI) onClearHistory() {
	if ui.history == nil {
		return
	}
	l := ui.localization
	dialog.ShowConfirm(l.GetText(KeyClearHistory), l.GetText(KeyClearHistoryAsk), func(ok bool) {
		if !ok {
			return
		}
		if err := ui.history.Clear(); err != nil {
			ui.logger.Error().Err(err).Msg("failed to clear history")
			ui.showNotification(err.Error())
			return
		}
		ui.showNotification(l.GetText(KeyHistoryCleared))
	}, ui.window)
}
