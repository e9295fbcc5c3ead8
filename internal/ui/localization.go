package ui

// Localization manages UI text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeyDownload          = "download"
	KeyCancel            = "cancel"
	KeyRestart           = "restart"
	KeyRemove            = "remove"
	KeyShowInFolder      = "show_in_folder"
	KeySettings          = "settings"
	KeyFile              = "file"
	KeyLanguage          = "language"
	KeyQuality           = "quality"
	KeyPlaylist          = "playlist"
	KeyDownloadDirectory = "download_directory"
	KeyMaxParallel       = "max_parallel"
	KeyFilenameTemplate  = "filename_template"
	KeyAutoReveal        = "auto_reveal"
	KeySave              = "save"
	KeyBrowse            = "browse"
	KeyEnterURL          = "enter_url"
	KeySettingsSaved     = "settings_saved"
	KeyDownloadStarted   = "download_started"
	KeyDownloadCompleted = "download_completed"
	KeyDownloadFailed    = "download_failed"
	KeyInvalidURL        = "invalid_url"
	KeyPleaseEnterURL    = "please_enter_url"
	KeyAlreadyInQueue    = "already_in_queue"
	KeyPlaylistDetected  = "playlist_detected"
	KeyHistory           = "history"
	KeyShowHistory       = "show_history"
	KeyClearHistory      = "clear_history"
	KeyClearHistoryAsk   = "clear_history_ask"
	KeyHistoryCleared    = "history_cleared"
	KeyHistoryEmpty      = "history_empty"
	KeyClose             = "close"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: "en",
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language; unknown codes keep the current one
func (l *Localization) SetLanguage(lang string) {
	if lang == "system" {
		lang = "en"
	}
	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if text, found := l.texts[l.currentLanguage][key]; found {
		return text
	}
	if text, found := l.texts["en"][key]; found {
		return text
	}
	return key
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		"en": "English",
		"ru": "Русский",
	}
}

func (l *Localization) initializeTexts() {
	l.texts["en"] = map[string]string{
		KeyAppTitle:          "YT Grab",
		KeyDownload:          "Download",
		KeyCancel:            "Cancel",
		KeyRestart:           "Restart",
		KeyRemove:            "Remove",
		KeyShowInFolder:      "Show in folder",
		KeySettings:          "Settings",
		KeyFile:              "File",
		KeyLanguage:          "Language",
		KeyQuality:           "Quality",
		KeyPlaylist:          "Whole playlist",
		KeyDownloadDirectory: "Download Directory",
		KeyMaxParallel:       "Max Parallel Downloads",
		KeyFilenameTemplate:  "Filename Template",
		KeyAutoReveal:        "Show in folder when done",
		KeySave:              "Save",
		KeyBrowse:            "Browse",
		KeyEnterURL:          "Enter YouTube URL (https://youtube.com/watch?v=...)",
		KeySettingsSaved:     "Settings saved",
		KeyDownloadStarted:   "Download started",
		KeyDownloadCompleted: "Download completed",
		KeyDownloadFailed:    "Download failed",
		KeyInvalidURL:        "Invalid URL",
		KeyPleaseEnterURL:    "Please enter a URL",
		KeyAlreadyInQueue:    "Already in queue",
		KeyPlaylistDetected:  "Playlist link detected, downloading all items",
		KeyHistory:           "History",
		KeyShowHistory:       "Show history",
		KeyClearHistory:      "Clear history",
		KeyClearHistoryAsk:   "Remove all recorded downloads?",
		KeyHistoryCleared:    "History cleared",
		KeyHistoryEmpty:      "No downloads recorded yet",
		KeyClose:             "Close",
	}

	l.texts["ru"] = map[string]string{
		KeyAppTitle:          "YT Grab",
		KeyDownload:          "Скачать",
		KeyCancel:            "Отмена",
		KeyRestart:           "Повторить",
		KeyRemove:            "Убрать",
		KeyShowInFolder:      "Показать в папке",
		KeySettings:          "Настройки",
		KeyFile:              "Файл",
		KeyLanguage:          "Язык",
		KeyQuality:           "Качество",
		KeyPlaylist:          "Весь плейлист",
		KeyDownloadDirectory: "Папка загрузки",
		KeyMaxParallel:       "Параллельных загрузок",
		KeyFilenameTemplate:  "Шаблон имени файла",
		KeyAutoReveal:        "Открывать папку после загрузки",
		KeySave:              "Сохранить",
		KeyBrowse:            "Обзор",
		KeyEnterURL:          "Введите ссылку YouTube (https://youtube.com/watch?v=...)",
		KeySettingsSaved:     "Настройки сохранены",
		KeyDownloadStarted:   "Загрузка начата",
		KeyDownloadCompleted: "Загрузка завершена",
		KeyDownloadFailed:    "Ошибка загрузки",
		KeyInvalidURL:        "Неверная ссылка",
		KeyPleaseEnterURL:    "Введите ссылку",
		KeyAlreadyInQueue:    "Уже в очереди",
		KeyPlaylistDetected:  "Обнаружен плейлист, будут скачаны все видео",
		KeyHistory:           "История",
		KeyShowHistory:       "Показать историю",
		KeyClearHistory:      "Очистить историю",
		KeyClearHistoryAsk:   "Удалить все записи о загрузках?",
		KeyHistoryCleared:    "История очищена",
		KeyHistoryEmpty:      "Загрузок пока нет",
		KeyClose:             "Закрыть",
	}
}
