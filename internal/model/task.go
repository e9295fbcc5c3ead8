package model

import (
	"strings"
	"time"
)

// DownloadTask is the caller-side view of one queued or running transfer.
// It is rebuilt from events and handed to the UI as a copy.
type DownloadTask struct {
	ID         string
	Request    Request
	Phase      Phase
	Queued     bool    // waiting for a free slot
	Progress   float64 // 0.0 to 1.0
	Percent    int     // 0 to 100
	Speed      string  // human readable speed, N/A if inactive
	ETA        string  // human readable ETA, N/A if unknown
	Size       string  // human readable downloaded/total
	Item       string  // "i/n" for collections
	Status     string  // status line of the last event
	LastError  string  // error message of the last failure
	Title      string
	Attempt    int // 1 for the first run, increased by retries/restarts
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewDownloadTask creates a pending task for the request
func NewDownloadTask(id string, req Request) *DownloadTask {
	return &DownloadTask{
		ID:        id,
		Request:   req,
		Phase:     PhaseIdle,
		Queued:    true,
		Speed:     NotAvailable,
		ETA:       NotAvailable,
		Size:      NotAvailable,
		Status:    "Queued",
		StartedAt: time.Now(),
	}
}

// ApplyEvent folds a progress event into the task view
func (dt *DownloadTask) ApplyEvent(ev Event) {
	dt.Phase = ev.Phase
	dt.Queued = false
	dt.Percent = ev.PercentInt()
	dt.Progress = float64(dt.Percent) / 100.0
	dt.Speed = ev.SpeedString()
	dt.ETA = ev.ETAString()
	dt.Size = ev.SizeString()
	dt.Item = ev.ItemString()
	dt.Status = ev.Status
	if ev.Title != "" {
		dt.Title = ev.Title
	}
	if ev.Phase == PhaseFailed {
		dt.LastError = ev.Message()
	}
	if ev.Phase.IsTerminal() {
		dt.FinishedAt = ev.At
		if dt.FinishedAt.IsZero() {
			dt.FinishedAt = time.Now()
		}
	}
}

// Snapshot returns a copy safe to hand to another goroutine
func (dt *DownloadTask) Snapshot() *DownloadTask {
	c := *dt
	return &c
}

// GetDisplayTitle returns title or URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	if dt.Title != "" && !strings.HasPrefix(dt.Title, "http") {
		return dt.Title
	}
	return dt.Request.Locator()
}
