package ui

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/ytget/ytgrab/internal/config"
	"github.com/ytget/ytgrab/internal/download"
	"github.com/ytget/ytgrab/internal/model"
	"github.com/ytget/ytgrab/internal/platform"
)

// ErrUnsupportedScheme is returned for URLs other than http(s)
var ErrUnsupportedScheme = errors.New("URL must start with http:// or https://")

// RootUI represents the main UI structure
type RootUI struct {
	app          fyne.App
	window       fyne.Window
	downloadSvc  download.Downloader
	history      HistoryStore
	localization *Localization
	logger       zerolog.Logger

	cfg     config.Config
	cfgPath string
	builder *download.RequestBuilder

	urlEntry      *widget.Entry
	qualitySelect *widget.Select
	playlistCheck *widget.Check
	downloadBtn   *widget.Button
	taskList      *widget.List
	notification  *widget.Label

	mu         sync.Mutex
	tasks      []*model.DownloadTask
	index      map[string]int
	lastUpdate time.Time
}

// NewRootUI creates and initializes the main UI. cfgPath is where the
// settings dialog saves changes; hist may be nil, which hides the History menu.
func NewRootUI(app fyne.App, window fyne.Window, downloadSvc download.Downloader, hist HistoryStore, cfg config.Config, cfgPath string, logger zerolog.Logger) *RootUI {
	localization := NewLocalization()
	localization.SetLanguage(cfg.UI.Language)

	ui := &RootUI{
		app:          app,
		window:       window,
		downloadSvc:  downloadSvc,
		history:      hist,
		localization: localization,
		logger:       logger.With().Str("component", "ui").Logger(),
		cfg:          cfg,
		cfgPath:      cfgPath,
		builder:      download.NewRequestBuilder(config.Qualities(), cfg.Download),
		index:        make(map[string]int),
	}

	window.SetTitle(localization.GetText(KeyAppTitle))
	downloadSvc.SetUpdateCallback(ui.onTaskUpdate)

	ui.setupUI()
	return ui
}

func (ui *RootUI) setupUI() {
	l := ui.localization
	ui.createMenu()

	ui.playlistCheck = widget.NewCheck(l.GetText(KeyPlaylist), nil)

	ui.urlEntry = widget.NewEntry()
	ui.urlEntry.SetPlaceHolder(l.GetText(KeyEnterURL))
	ui.urlEntry.Validator = validateURL
	ui.urlEntry.OnSubmitted = func(string) { ui.onDownloadClick() }
	ui.urlEntry.OnChanged = func(s string) {
		// playlist links default to downloading the whole list
		if platform.IsPlaylistURL(s) && !ui.playlistCheck.Checked {
			ui.playlistCheck.SetChecked(true)
		}
	}

	ui.qualitySelect = widget.NewSelect(ui.builder.Qualities(), nil)
	ui.qualitySelect.SetSelected(ui.builder.DefaultQuality())

	ui.downloadBtn = widget.NewButton(l.GetText(KeyDownload), ui.onDownloadClick)
	ui.downloadBtn.Importance = widget.HighImportance

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	urlRow := container.NewBorder(nil, nil, settingsBtn, ui.downloadBtn, ui.urlEntry)
	optionsRow := container.NewHBox(widget.NewLabel(l.GetText(KeyQuality)), ui.qualitySelect, ui.playlistCheck)

	ui.notification = widget.NewLabel("")
	ui.notification.Truncation = fyne.TextTruncateEllipsis
	ui.notification.Hide()

	ui.taskList = widget.NewList(
		ui.taskCount,
		func() fyne.CanvasObject {
			row := NewTaskRow(nil, ui.localization)
			row.SetCallbacks(ui.onCancelTask, ui.onRestartTask, ui.onRevealDir, ui.onRemoveTask)
			return row
		},
		ui.updateTaskItem,
	)

	top := container.NewVBox(urlRow, optionsRow, ui.notification)
	ui.window.SetContent(container.NewBorder(top, nil, nil, nil, ui.taskList))
}

func (ui *RootUI) createMenu() {
	l := ui.localization
	menus := []*fyne.Menu{
		fyne.NewMenu(l.GetText(KeyFile), fyne.NewMenuItem(l.GetText(KeySettings), ui.onShowSettings)),
	}
	if ui.history != nil {
		menus = append(menus, fyne.NewMenu(l.GetText(KeyHistory),
			fyne.NewMenuItem(l.GetText(KeyShowHistory), ui.onShowHistory),
			fyne.NewMenuItem(l.GetText(KeyClearHistory), ui.onClearHistory),
		))
	}
	ui.window.SetMainMenu(fyne.NewMainMenu(menus...))
}

// validateURL accepts empty input and absolute http(s) URLs
func validateURL(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	parsed, err := url.Parse(input)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrUnsupportedScheme
	}
	return nil
}

func (ui *RootUI) onDownloadClick() {
	l := ui.localization
	raw := cleanText(ui.urlEntry.Text)
	if raw == "" {
		ui.showNotification(l.GetText(KeyPleaseEnterURL))
		return
	}
	if err := validateURL(raw); err != nil {
		ui.showNotification(l.GetText(KeyInvalidURL) + ": " + err.Error())
		return
	}

	req, err := ui.builder.Build(raw, ui.qualitySelect.Selected, ui.playlistCheck.Checked)
	if err != nil {
		ui.showNotification(err.Error())
		return
	}
	if err := platform.CreateDirectoryIfNotExists(req.OutputDir); err != nil {
		ui.logger.Warn().Err(err).Str("dir", req.OutputDir).Msg("failed to ensure downloads dir")
	}

	task, err := ui.downloadSvc.AddTask(req)
	switch {
	case errors.Is(err, download.ErrDuplicateURL):
		ui.showNotification(l.GetText(KeyAlreadyInQueue))
		return
	case err != nil:
		ui.showNotification(err.Error())
		return
	}

	// the row itself arrives through onTaskUpdate
	ui.logger.Info().Str("task", task.ID).Str("url", req.URL).Msg("download requested")
	ui.urlEntry.SetText("")
	ui.playlistCheck.SetChecked(false)

	msg := l.GetText(KeyDownloadStarted)
	if req.Playlist {
		msg = l.GetText(KeyPlaylistDetected)
	}
	ui.showNotification(msg)
}

// onTaskUpdate handles task updates from the download service. It runs on
// transfer goroutines, so widget work goes through fyne.Do.
func (ui *RootUI) onTaskUpdate(task *model.DownloadTask) {
	refresh := ui.upsertTask(task)

	if task.Phase.IsTerminal() {
		ui.onTaskEnded(task)
	}
	if !refresh {
		return
	}
	fyne.Do(func() {
		ui.taskList.Refresh()
	})
}

// upsertTask stores the latest copy of a task and reports whether the list
// should be redrawn now. Progress updates are throttled, the rest are not.
func (ui *RootUI) upsertTask(task *model.DownloadTask) bool {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	i, ok := ui.index[task.ID]
	if !ok {
		ui.index[task.ID] = len(ui.tasks)
		ui.tasks = append(ui.tasks, task)
		ui.lastUpdate = time.Now()
		return true
	}
	prev := ui.tasks[i]
	ui.tasks[i] = task

	now := time.Now()
	if prev.Phase == task.Phase && now.Sub(ui.lastUpdate) < UIUpdateDebounce {
		return false
	}
	ui.lastUpdate = now
	return true
}

func (ui *RootUI) onTaskEnded(task *model.DownloadTask) {
	l := ui.localization
	switch task.Phase {
	case model.PhaseFinished:
		ui.app.SendNotification(fyne.NewNotification(l.GetText(KeyDownloadCompleted), task.GetDisplayTitle()))
		if ui.autoReveal() {
			ui.onRevealDir(task.Request.OutputDir)
		}
	case model.PhaseFailed:
		ui.showNotification(fmt.Sprintf("%s: %s", l.GetText(KeyDownloadFailed), task.LastError))
	}
}

func (ui *RootUI) taskCount() int {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return len(ui.tasks)
}

func (ui *RootUI) taskAt(i int) *model.DownloadTask {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if i < 0 || i >= len(ui.tasks) {
		return nil
	}
	return ui.tasks[i]
}

func (ui *RootUI) updateTaskItem(id widget.ListItemID, item fyne.CanvasObject) {
	task := ui.taskAt(id)
	if task == nil {
		return
	}
	if row, ok := item.(*TaskRow); ok {
		row.UpdateTask(task)
	}
}

func (ui *RootUI) onCancelTask(taskID string) {
	if err := ui.downloadSvc.StopTask(taskID); err != nil {
		ui.logger.Warn().Err(err).Str("task", taskID).Msg("cancel failed")
		ui.showNotification(err.Error())
	}
}

func (ui *RootUI) onRestartTask(taskID string) {
	if err := ui.downloadSvc.RestartTask(taskID); err != nil {
		ui.logger.Warn().Err(err).Str("task", taskID).Msg("restart failed")
		ui.showNotification(err.Error())
	}
}

func (ui *RootUI) onRemoveTask(taskID string) {
	if err := ui.downloadSvc.RemoveTask(taskID); err != nil {
		ui.showNotification(err.Error())
		return
	}

	ui.mu.Lock()
	if i, ok := ui.index[taskID]; ok {
		ui.tasks = append(ui.tasks[:i], ui.tasks[i+1:]...)
		delete(ui.index, taskID)
		for j := i; j < len(ui.tasks); j++ {
			ui.index[ui.tasks[j].ID] = j
		}
	}
	ui.mu.Unlock()
	ui.taskList.Refresh()
}

func (ui *RootUI) onRevealDir(dir string) {
	if err := platform.OpenDirectory(dir); err != nil {
		ui.logger.Warn().Err(err).Str("dir", dir).Msg("failed to open directory")
		ui.showNotification(err.Error())
	}
}

func (ui *RootUI) onShowSettings() {
	NewSettingsDialog(ui.currentConfig(), ui.window, ui.localization, ui.applySettings).Show()
}

// currentConfig returns the settings; transfer goroutines read them too
func (ui *RootUI) currentConfig() config.Config {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.cfg
}

func (ui *RootUI) setConfig(cfg config.Config) {
	ui.mu.Lock()
	ui.cfg = cfg
	ui.mu.Unlock()
}

func (ui *RootUI) autoReveal() bool {
	return ui.currentConfig().Download.AutoReveal
}

// applySettings persists edited settings and pushes them to the service
func (ui *RootUI) applySettings(cfg config.Config) {
	ui.setConfig(cfg)
	ui.builder = download.NewRequestBuilder(config.Qualities(), cfg.Download)
	ui.downloadSvc.SetMaxParallelDownloads(cfg.Download.MaxParallel)
	ui.localization.SetLanguage(cfg.UI.Language)
	ui.qualitySelect.SetSelected(ui.builder.DefaultQuality())

	if err := config.Save(&cfg, ui.cfgPath); err != nil {
		ui.logger.Error().Err(err).Msg("failed to save settings")
		ui.showNotification(err.Error())
		return
	}
	ui.showNotification(ui.localization.GetText(KeySettingsSaved))
}

// showNotification displays a message under the URL input
func (ui *RootUI) showNotification(message string) {
	fyne.Do(func() {
		ui.notification.SetText(message)
		ui.notification.Show()
	})
}
