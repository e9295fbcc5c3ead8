package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytgrab/internal/model"
)

func testPlaylist() *model.Playlist {
	pl := model.NewPlaylist("PL1", "https://example.com/playlist?list=PL1")
	pl.AddItem(&model.PlaylistItem{ID: "a", Title: "First"})
	pl.AddItem(&model.PlaylistItem{ID: "b", Title: "Second"})
	pl.AddItem(&model.PlaylistItem{ID: "c", Title: "Third"})
	return pl
}

func TestTranslatorDownloading(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 10, 0, time.UTC)
	tr := newTranslator(nil)
	tr.now = func() time.Time { return now }

	c, ok := tr.translate(rawProgress{
		status:     statusDownloading,
		downloaded: 5000,
		total:      10000,
		started:    now.Add(-10 * time.Second),
		eta:        5 * time.Second,
		itemID:     "a",
		title:      "Clip",
	})
	require.True(t, ok)
	assert.Equal(t, ChunkDownloading, c.Status)
	assert.Equal(t, int64(5000), c.Downloaded)
	assert.Equal(t, int64(10000), c.Total)
	assert.InDelta(t, 500.0, c.Speed, 0.001)
	assert.Equal(t, 5*time.Second, c.ETA)
	assert.Equal(t, "Clip", c.Title)
	assert.Zero(t, c.ItemIndex)
	assert.Zero(t, c.ItemCount)
}

func TestTranslatorUnknownETA(t *testing.T) {
	tr := newTranslator(nil)
	c, ok := tr.translate(rawProgress{status: statusDownloading, downloaded: 1})
	require.True(t, ok)
	assert.Equal(t, time.Duration(-1), c.ETA)
	assert.Zero(t, c.Speed)
}

func TestTranslatorPlaylistIndex(t *testing.T) {
	tr := newTranslator(testPlaylist())

	c, ok := tr.translate(rawProgress{status: statusDownloading, itemID: "b"})
	require.True(t, ok)
	assert.Equal(t, 2, c.ItemIndex)
	assert.Equal(t, 3, c.ItemCount)

	c, ok = tr.translate(rawProgress{status: statusDownloading, itemID: "unknown"})
	require.True(t, ok)
	assert.Zero(t, c.ItemIndex)
	assert.Zero(t, c.ItemCount)
}

func TestTranslatorStatuses(t *testing.T) {
	tr := newTranslator(nil)

	c, ok := tr.translate(rawProgress{status: statusStarting})
	require.True(t, ok)
	assert.Equal(t, ChunkConnecting, c.Status)

	c, ok = tr.translate(rawProgress{status: statusFinished, downloaded: 300, total: 200})
	require.True(t, ok)
	assert.Equal(t, ChunkStreamFinished, c.Status)
	assert.Equal(t, int64(300), c.Total)

	c, ok = tr.translate(rawProgress{status: statusPostProcessing})
	require.True(t, ok)
	assert.Equal(t, ChunkPostprocessing, c.Status)

	_, ok = tr.translate(rawProgress{status: "error"})
	assert.False(t, ok)
}

func TestTranslatorConnecting(t *testing.T) {
	c := newTranslator(testPlaylist()).connecting()
	assert.Equal(t, ChunkConnecting, c.Status)
	assert.Equal(t, 3, c.ItemCount)

	c = newTranslator(nil).connecting()
	assert.Zero(t, c.ItemCount)
}

func TestEngineMessage(t *testing.T) {
	stderr := "WARNING: something\nERROR: [youtube] abc: Video unavailable\nERROR: last one\n"
	assert.Equal(t, "ERROR: last one", engineMessage(stderr, errors.New("exit status 1")))
	assert.Equal(t, "exit status 1", engineMessage("WARNING: only", errors.New("exit status 1")))
	assert.Equal(t, "unknown engine error", engineMessage("", nil))
}

func TestExitError(t *testing.T) {
	base := errors.New("exit status 1")
	err := &ExitError{Message: "ERROR: Unsupported URL", Err: base}
	assert.Equal(t, "ERROR: Unsupported URL", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestIsAbort(t *testing.T) {
	assert.True(t, IsAbort(fmt.Errorf("yt-dlp: %w", ErrAbort)))
	assert.False(t, IsAbort(errors.New("other")))
}

func TestNewYTDLPDefaults(t *testing.T) {
	y := NewYTDLP(WithProgressInterval(0))
	assert.Equal(t, DefaultProgressInterval, y.progressInterval)
	assert.Nil(t, y.resolver)

	y = NewYTDLP(WithProgressInterval(time.Second))
	assert.Equal(t, time.Second, y.progressInterval)
}
