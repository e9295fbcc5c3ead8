package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/ytgrab/internal/model"
)

// TaskRow represents a compact task row widget
type TaskRow struct {
	widget.BaseWidget

	task         *model.DownloadTask
	localization *Localization

	titleLabel   *widget.Label
	statusLabel  *widget.Label
	percentLabel *widget.Label
	detailLabel  *widget.Label
	progressBar  *widget.ProgressBar

	cancelBtn  *widget.Button
	restartBtn *widget.Button
	folderBtn  *widget.Button
	removeBtn  *widget.Button

	onCancel  func(taskID string)
	onRestart func(taskID string)
	onReveal  func(dir string)
	onRemove  func(taskID string)
}

// NewTaskRow creates a new task row widget
func NewTaskRow(task *model.DownloadTask, localization *Localization) *TaskRow {
	if task == nil {
		task = &model.DownloadTask{ID: "placeholder", Phase: model.PhaseIdle}
	}
	tr := &TaskRow{task: task, localization: localization}
	tr.ExtendBaseWidget(tr)
	tr.createUI()
	tr.updateFromTask()
	return tr
}

// SetCallbacks sets the action callbacks
func (tr *TaskRow) SetCallbacks(onCancel, onRestart func(taskID string), onReveal func(dir string), onRemove func(taskID string)) {
	tr.onCancel = onCancel
	tr.onRestart = onRestart
	tr.onReveal = onReveal
	tr.onRemove = onRemove
}

// UpdateTask updates the row with new task data
func (tr *TaskRow) UpdateTask(task *model.DownloadTask) {
	if task == nil {
		return
	}
	tr.task = task
	tr.updateFromTask()
	tr.Refresh()
}

func (tr *TaskRow) createUI() {
	tr.titleLabel = widget.NewLabel("")
	tr.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	tr.titleLabel.Truncation = fyne.TextTruncateEllipsis

	tr.statusLabel = widget.NewLabel("")
	tr.statusLabel.Alignment = fyne.TextAlignTrailing
	tr.percentLabel = widget.NewLabel("")
	tr.percentLabel.Alignment = fyne.TextAlignTrailing
	tr.detailLabel = widget.NewLabel("")
	tr.detailLabel.TextStyle = fyne.TextStyle{Monospace: true}
	tr.detailLabel.Truncation = fyne.TextTruncateEllipsis

	tr.progressBar = widget.NewProgressBar()
	tr.progressBar.TextFormatter = func() string { return "" }

	// handlers read tr.task at click time; rows are recycled by the list
	tr.cancelBtn = widget.NewButton(IconStop+" "+tr.localization.GetText(KeyCancel), func() {
		if tr.onCancel != nil {
			tr.onCancel(tr.task.ID)
		}
	})
	tr.restartBtn = widget.NewButton(IconRetry+" "+tr.localization.GetText(KeyRestart), func() {
		if tr.onRestart != nil {
			tr.onRestart(tr.task.ID)
		}
	})
	tr.folderBtn = widget.NewButton(IconFolder+" "+tr.localization.GetText(KeyShowInFolder), func() {
		if tr.onReveal != nil {
			tr.onReveal(tr.task.Request.OutputDir)
		}
	})
	tr.removeBtn = widget.NewButton(IconClose, func() {
		if tr.onRemove != nil {
			tr.onRemove(tr.task.ID)
		}
	})
	for _, b := range []*widget.Button{tr.cancelBtn, tr.restartBtn, tr.folderBtn, tr.removeBtn} {
		b.Importance = widget.LowImportance
	}
}

// updateFromTask updates UI components based on task state
func (tr *TaskRow) updateFromTask() {
	t := tr.task

	tr.titleLabel.SetText(cleanText(t.GetDisplayTitle()))

	tr.statusLabel.Importance = phaseImportance(t.Phase)
	tr.statusLabel.SetText(phaseIcon(t.Phase) + " " + cleanText(t.Status))

	tr.progressBar.SetValue(t.Progress)
	if t.Phase.IsActive() || t.Phase == model.PhaseFinished {
		tr.percentLabel.SetText(fmt.Sprintf(ProgressLabelFormat, t.Percent))
	} else {
		tr.percentLabel.SetText("")
	}
	tr.detailLabel.SetText(rowDetails(t))

	tr.updateButtons()
}

// updateButtons enables the actions valid in the task's phase
func (tr *TaskRow) updateButtons() {
	ended := tr.task.Phase.IsTerminal()
	setEnabled(tr.cancelBtn, !ended)
	setEnabled(tr.restartBtn, ended)
	setEnabled(tr.removeBtn, ended)
	setEnabled(tr.folderBtn, tr.task.Phase == model.PhaseFinished && tr.task.Request.OutputDir != "")
}

// CreateRenderer creates the widget renderer
func (tr *TaskRow) CreateRenderer() fyne.WidgetRenderer {
	header := container.NewBorder(nil, nil, nil,
		container.NewHBox(tr.statusLabel, tr.percentLabel), tr.titleLabel)
	actions := container.NewHBox(layout.NewSpacer(), tr.cancelBtn, tr.restartBtn, tr.folderBtn, tr.removeBtn)
	body := container.NewBorder(nil, nil, nil, actions, tr.detailLabel)
	return widget.NewSimpleRenderer(container.NewVBox(header, tr.progressBar, body))
}

// MinSize keeps rows readable in narrow windows
func (tr *TaskRow) MinSize() fyne.Size {
	size := tr.BaseWidget.MinSize()
	return fyne.NewSize(max(size.Width, RowMinWidth), max(size.Height, RowMinHeight))
}

// rowDetails builds the size/speed/ETA line of a task
func rowDetails(t *model.DownloadTask) string {
	switch {
	case t.Phase == model.PhaseFailed:
		return cleanText(t.LastError)
	case t.Phase == model.PhaseFinished:
		return joinDetails(t.Item, t.Size)
	case t.Phase.IsActive():
		return joinDetails(t.Item, t.Size, t.Speed, t.ETA)
	case t.Phase == model.PhaseIdle && t.LastError != "":
		// waiting for a retry
		return cleanText(t.LastError)
	default:
		return DashPlaceholder
	}
}

func joinDetails(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" && p != model.NotAvailable {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return DashPlaceholder
	}
	return strings.Join(kept, MiddleDotSeparator)
}

// cleanText strips line breaks that break single-line labels
func cleanText(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s))
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}
