package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewDownloadTask(t *testing.T) {
	req := Request{URL: "https://youtube.com/watch?v=test", Quality: 720}
	task := NewDownloadTask("test-123", req)

	if task.ID != "test-123" {
		t.Errorf("Expected ID to be 'test-123', got '%s'", task.ID)
	}
	if task.Phase != PhaseIdle {
		t.Errorf("Expected phase to be Idle, got %s", task.Phase)
	}
	if !task.Queued {
		t.Error("Expected new task to be queued")
	}
	if task.Speed != NotAvailable || task.ETA != NotAvailable {
		t.Errorf("Expected N/A placeholders, got speed=%s eta=%s", task.Speed, task.ETA)
	}
	if task.StartedAt.IsZero() {
		t.Error("Expected StartedAt to be set")
	}
}

func TestDownloadTask_ApplyEvent(t *testing.T) {
	task := NewDownloadTask("t", Request{URL: "https://youtube.com/watch?v=test"})

	task.ApplyEvent(Event{
		Phase:      PhaseDownloading,
		Downloaded: 500,
		Total:      1000,
		Percent:    50,
		Speed:      2000,
		ETA:        5 * time.Second,
		ItemIndex:  1,
		ItemCount:  3,
		Title:      "Video Title",
		Status:     "Downloading item 1/3",
	})

	if task.Queued {
		t.Error("Expected task to leave the queue after the first event")
	}
	if task.Percent != 50 || task.Progress != 0.5 {
		t.Errorf("Expected 50%%/0.5, got %d/%.2f", task.Percent, task.Progress)
	}
	if task.ETA != "5s" {
		t.Errorf("Expected ETA '5s', got %s", task.ETA)
	}
	if task.Item != "1/3" {
		t.Errorf("Expected item '1/3', got %s", task.Item)
	}
	if task.Title != "Video Title" {
		t.Errorf("Expected title to be kept, got %s", task.Title)
	}

	at := time.Now()
	task.ApplyEvent(Event{Phase: PhaseFailed, Status: "ERROR: unavailable", Err: errors.New("ERROR: unavailable"), At: at, ETA: ETAUnknown})

	if task.LastError != "ERROR: unavailable" {
		t.Errorf("Expected last error to be recorded, got %q", task.LastError)
	}
	if !task.FinishedAt.Equal(at) {
		t.Errorf("Expected FinishedAt %v, got %v", at, task.FinishedAt)
	}
	if task.Title != "Video Title" {
		t.Error("Expected title to survive an event without title")
	}
}

func TestDownloadTask_GetDisplayTitle(t *testing.T) {
	tests := []struct {
		title    string
		url      string
		expected string
	}{
		{"Video Title", "https://youtube.com/watch?v=123", "Video Title"},
		{"", "https://youtube.com/watch?v=123", "https://youtube.com/watch?v=123"},
		{"https://youtube.com/watch?v=456", " https://youtube.com/watch?v=456 ", "https://youtube.com/watch?v=456"},
	}

	for _, test := range tests {
		task := &DownloadTask{Title: test.title, Request: Request{URL: test.url}}
		result := task.GetDisplayTitle()
		if result != test.expected {
			t.Errorf("GetDisplayTitle() with title='%s', url='%s' = '%s', expected '%s'",
				test.title, test.url, result, test.expected)
		}
	}
}

func TestDownloadTask_Snapshot(t *testing.T) {
	task := NewDownloadTask("t", Request{URL: "u"})
	snap := task.Snapshot()
	snap.Status = "changed"

	if task.Status == "changed" {
		t.Error("Snapshot must not alias the original task")
	}
}
