package engine

import (
	"context"
	"errors"
	"time"
)

// ErrAbort is returned by a chunk callback to stop the running download.
var ErrAbort = errors.New("transfer aborted by callback")

// ChunkStatus classifies a raw progress report of the engine
type ChunkStatus string

const (
	// ChunkConnecting is reported once the source was resolved, before any bytes
	ChunkConnecting ChunkStatus = "connecting"

	// ChunkDownloading carries byte counters of the current stream
	ChunkDownloading ChunkStatus = "downloading"

	// ChunkStreamFinished marks the end of one stream of the current item
	ChunkStreamFinished ChunkStatus = "stream_finished"

	// ChunkPostprocessing marks muxing/conversion of the current item
	ChunkPostprocessing ChunkStatus = "postprocessing"
)

// Chunk is one raw progress report passed to the callback.
type Chunk struct {
	Status     ChunkStatus
	Downloaded int64
	Total      int64         // total or estimate, 0 if unknown
	Speed      float64       // bytes per second, 0 if unknown
	ETA        time.Duration // negative if unknown
	ItemID     string
	ItemIndex  int // 1-based, 0 if the engine cannot tell
	ItemCount  int // 0 if the engine cannot tell
	Title      string
}

// ChunkFunc receives chunks; a non-nil return aborts the download.
type ChunkFunc func(Chunk) error

// Options configure one engine call
type Options struct {
	Format         string // format selector expression
	OutputTemplate string // output path template
	MergeFormat    string // container used when streams are merged
	SingleItem     bool   // only the linked resource, never its collection
	OnChunk        ChunkFunc
}

// Engine runs one transfer for exactly one source locator and blocks until
// completion, abort or error. When the callback aborts, the returned error
// wraps the callback's error.
type Engine interface {
	Download(ctx context.Context, url string, opts Options) error
}

// EngineFunc adapts a function to the Engine interface
type EngineFunc func(ctx context.Context, url string, opts Options) error

// Download calls f
func (f EngineFunc) Download(ctx context.Context, url string, opts Options) error {
	return f(ctx, url, opts)
}
