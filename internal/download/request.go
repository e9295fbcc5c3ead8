package download

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ytget/ytgrab/internal/config"
	"github.com/ytget/ytgrab/internal/model"
)

// ErrUnknownQuality is returned for quality names missing from the table
var ErrUnknownQuality = errors.New("unknown quality")

// RequestBuilder turns user input into transfer requests using the quality
// table and download defaults it was created with.
type RequestBuilder struct {
	qualities config.QualityTable
	defaults  config.DownloadConfig
}

// NewRequestBuilder creates a builder
func NewRequestBuilder(qualities config.QualityTable, defaults config.DownloadConfig) *RequestBuilder {
	return &RequestBuilder{qualities: qualities, defaults: defaults}
}

// Build creates a request for url. An empty quality name selects the
// configured default. The URL is not validated here; an empty URL yields a
// request that transfers reject.
func (b *RequestBuilder) Build(url, quality string, playlist bool) (model.Request, error) {
	if strings.TrimSpace(quality) == "" {
		quality = b.defaults.Quality
	}
	if quality == "" {
		quality = config.DefaultQuality
	}
	q, ok := b.qualities.Lookup(quality)
	if !ok {
		return model.Request{}, fmt.Errorf("%w: %q", ErrUnknownQuality, quality)
	}

	req := model.Request{
		URL:            strings.TrimSpace(url),
		Quality:        q,
		Playlist:       playlist,
		OutputTemplate: b.defaults.OutputTemplate,
		OutputDir:      b.defaults.Directory,
		MergeFormat:    b.defaults.MergeFormat,
	}
	return req.WithDefaults(), nil
}

// Qualities returns the names offered to the user
func (b *RequestBuilder) Qualities() []string {
	return b.qualities.Names()
}

// DefaultQuality returns the preselected quality name
func (b *RequestBuilder) DefaultQuality() string {
	if _, ok := b.qualities.Lookup(b.defaults.Quality); ok {
		return b.defaults.Quality
	}
	return config.DefaultQuality
}
