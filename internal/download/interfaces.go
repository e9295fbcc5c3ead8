package download

import (
	"github.com/ytget/ytgrab/internal/history"
	"github.com/ytget/ytgrab/internal/model"
	"github.com/ytget/ytgrab/internal/platform"
)

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(*model.DownloadTask))
	AddTask(req model.Request) (*model.DownloadTask, error)
	GetTask(id string) (*model.DownloadTask, bool)
	GetAllTasks() []*model.DownloadTask
	StopTask(id string) error
	RestartTask(id string) error
	RemoveTask(id string) error

	// SetMaxParallelDownloads sets the maximum number of parallel downloads
	SetMaxParallelDownloads(max int)
}

// HistoryRecorder stores terminal outcomes
type HistoryRecorder interface {
	Record(e history.Entry) error
}

// URLLocker guards a URL against concurrent downloads by other processes
type URLLocker interface {
	TryLock(url string) (*platform.URLLock, error)
}

var (
	_ Downloader      = (*Service)(nil)
	_ HistoryRecorder = (*history.Store)(nil)
	_ URLLocker       = (*platform.URLLocker)(nil)
)
