package ui

import (
	"sort"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/ytgrab/internal/config"
)

// SettingsDialog edits the download and interface settings
type SettingsDialog struct {
	cfg          config.Config
	window       fyne.Window
	localization *Localization
	onSave       func(config.Config)
	dialog       *dialog.ConfirmDialog

	downloadDirEntry *widget.Entry
	maxParallelEntry *widget.Entry
	qualitySelect    *widget.Select
	filenameEntry    *widget.Entry
	autoRevealCheck  *widget.Check
	languageSelect   *widget.Select
}

// NewSettingsDialog creates a settings dialog over a copy of cfg. onSave
// receives the edited copy after the user confirms.
func NewSettingsDialog(cfg config.Config, window fyne.Window, localization *Localization, onSave func(config.Config)) *SettingsDialog {
	sd := &SettingsDialog{
		cfg:          cfg,
		window:       window,
		localization: localization,
		onSave:       onSave,
	}
	sd.createUI()
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

func (sd *SettingsDialog) createUI() {
	l := sd.localization

	sd.downloadDirEntry = widget.NewEntry()
	browseDirBtn := widget.NewButton(l.GetText(KeyBrowse), sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	sd.maxParallelEntry = widget.NewEntry()
	sd.maxParallelEntry.SetPlaceHolder("1-10")
	sd.maxParallelEntry.Validator = validateParallel

	sd.qualitySelect = widget.NewSelect(config.Qualities().Names(), nil)

	sd.filenameEntry = widget.NewEntry()
	sd.filenameEntry.SetPlaceHolder("%(title)s.%(ext)s")

	sd.autoRevealCheck = widget.NewCheck(l.GetText(KeyAutoReveal), nil)

	langs := l.GetAvailableLanguages()
	codes := make([]string, 0, len(langs))
	for code := range langs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	sd.languageSelect = widget.NewSelect(codes, nil)

	form := widget.NewForm(
		widget.NewFormItem(l.GetText(KeyDownloadDirectory), downloadDirRow),
		widget.NewFormItem(l.GetText(KeyMaxParallel), sd.maxParallelEntry),
		widget.NewFormItem(l.GetText(KeyQuality), sd.qualitySelect),
		widget.NewFormItem(l.GetText(KeyFilenameTemplate), sd.filenameEntry),
		widget.NewFormItem("", sd.autoRevealCheck),
		widget.NewFormItem(l.GetText(KeyLanguage), sd.languageSelect),
	)

	sd.dialog = dialog.NewCustomConfirm(
		l.GetText(KeySettings),
		l.GetText(KeySave),
		l.GetText(KeyCancel),
		form,
		sd.onConfirm,
		sd.window,
	)
	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

func (sd *SettingsDialog) loadCurrentSettings() {
	d := sd.cfg.Download
	sd.downloadDirEntry.SetText(d.Directory)
	sd.maxParallelEntry.SetText(strconv.Itoa(d.MaxParallel))
	sd.qualitySelect.SetSelected(d.Quality)
	sd.filenameEntry.SetText(d.OutputTemplate)
	sd.autoRevealCheck.SetChecked(d.AutoReveal)
	sd.languageSelect.SetSelected(sd.cfg.UI.Language)
}

func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

func (sd *SettingsDialog) onConfirm(confirmed bool) {
	if !confirmed {
		return
	}

	cfg := sd.cfg
	if dir := sd.downloadDirEntry.Text; dir != "" {
		cfg.Download.Directory = dir
	}
	if n, err := strconv.Atoi(sd.maxParallelEntry.Text); err == nil {
		cfg.Download.MaxParallel = n
	}
	if q := sd.qualitySelect.Selected; q != "" {
		cfg.Download.Quality = q
	}
	if tpl := sd.filenameEntry.Text; tpl != "" {
		cfg.Download.OutputTemplate = tpl
	}
	cfg.Download.AutoReveal = sd.autoRevealCheck.Checked
	if lang := sd.languageSelect.Selected; lang != "" {
		cfg.UI.Language = lang
	}
	cfg.Normalize()

	sd.cfg = cfg
	if sd.onSave != nil {
		sd.onSave(cfg)
	}
}

// validateParallel accepts whole numbers within the allowed range
func validateParallel(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if n != config.ClampParallel(n) {
		return strconv.ErrRange
	}
	return nil
}
