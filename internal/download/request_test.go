package download

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytgrab/internal/config"
	"github.com/ytget/ytgrab/internal/model"
)

func TestRequestBuilder_Build(t *testing.T) {
	b := NewRequestBuilder(config.Qualities(), config.DownloadConfig{
		Directory:      "/videos",
		Quality:        "720p",
		OutputTemplate: "%(id)s.%(ext)s",
	})

	r, err := b.Build(" https://youtube.com/watch?v=1 ", "1080p", false)
	require.NoError(t, err)
	assert.Equal(t, "https://youtube.com/watch?v=1", r.URL)
	assert.Equal(t, model.Quality(1080), r.Quality)
	assert.False(t, r.Playlist)
	assert.Equal(t, "/videos", r.OutputDir)
	assert.Equal(t, "%(id)s.%(ext)s", r.OutputTemplate)
	assert.Equal(t, model.DefaultMergeFormat, r.MergeFormat)

	r, err = b.Build("https://youtube.com/playlist?list=PL1", "", true)
	require.NoError(t, err)
	assert.Equal(t, model.Quality(720), r.Quality, "default quality from config")
	assert.True(t, r.Playlist)

	r, err = b.Build("https://youtube.com/watch?v=1", "best", false)
	require.NoError(t, err)
	assert.False(t, r.Quality.IsBounded())

	_, err = b.Build("https://youtube.com/watch?v=1", "2k", false)
	assert.ErrorIs(t, err, ErrUnknownQuality)
}

func TestRequestBuilder_EmptyURL(t *testing.T) {
	b := NewRequestBuilder(config.Qualities(), config.DownloadConfig{})
	r, err := b.Build("", "", false)
	require.NoError(t, err)
	assert.False(t, r.HasLocator())
	assert.Equal(t, model.Quality(1080), r.Quality)
	assert.Equal(t, config.DefaultQuality, b.DefaultQuality())
	assert.Contains(t, b.Qualities(), "144p")
}
