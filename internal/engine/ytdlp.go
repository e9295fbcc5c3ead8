package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"

	"github.com/ytget/ytgrab/internal/model"
)

// DefaultProgressInterval is how often yt-dlp reports progress
const DefaultProgressInterval = 500 * time.Millisecond

// yt-dlp progress statuses
const (
	statusStarting       = "starting"
	statusDownloading    = "downloading"
	statusFinished       = "finished"
	statusPostProcessing = "post_processing"
)

// errorLinePrefix marks yt-dlp error lines on stderr
const errorLinePrefix = "ERROR:"

// PlaylistResolver lists the items of a collection URL so that item
// counters can be reported.
type PlaylistResolver interface {
	Resolve(ctx context.Context, url string) (*model.Playlist, error)
}

// ExitError is an engine failure; Error returns the engine's own message.
type ExitError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// Unwrap returns the underlying run error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// YTDLP runs downloads through the yt-dlp executable.
type YTDLP struct {
	resolver         PlaylistResolver
	progressInterval time.Duration
	logger           zerolog.Logger
}

// YTDLPOption configures a YTDLP engine
type YTDLPOption func(*YTDLP)

// WithResolver sets the resolver used for playlist requests
func WithResolver(r PlaylistResolver) YTDLPOption {
	return func(y *YTDLP) { y.resolver = r }
}

// WithProgressInterval sets the progress reporting interval
func WithProgressInterval(d time.Duration) YTDLPOption {
	return func(y *YTDLP) {
		if d > 0 {
			y.progressInterval = d
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(l zerolog.Logger) YTDLPOption {
	return func(y *YTDLP) { y.logger = l.With().Str("component", "ytdlp").Logger() }
}

// NewYTDLP creates a yt-dlp backed engine
func NewYTDLP(opts ...YTDLPOption) *YTDLP {
	y := &YTDLP{
		progressInterval: DefaultProgressInterval,
		logger:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Download runs yt-dlp for url. A callback error cancels the yt-dlp process
// and is returned wrapped.
func (y *YTDLP) Download(ctx context.Context, url string, opts Options) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	onChunk := opts.OnChunk
	if onChunk == nil {
		onChunk = func(Chunk) error { return nil }
	}

	var playlist *model.Playlist
	if !opts.SingleItem && y.resolver != nil {
		pl, err := y.resolver.Resolve(ctx, url)
		if err != nil {
			y.logger.Debug().Err(err).Str("url", url).Msg("playlist not resolved, item counters unavailable")
		} else {
			playlist = pl
			y.logger.Info().Str("playlist", pl.Title).Int("items", pl.Len()).Msg("playlist resolved")
		}
	}

	tr := newTranslator(playlist)
	if err := onChunk(tr.connecting()); err != nil {
		return fmt.Errorf("yt-dlp: %w", err)
	}

	var (
		mu      sync.Mutex
		hookErr error
	)
	cmd := y.command(opts)
	cmd.ProgressFunc(y.progressInterval, func(update ytdlp.ProgressUpdate) {
		mu.Lock()
		defer mu.Unlock()
		if hookErr != nil {
			return
		}
		chunk, ok := tr.translate(progressFromUpdate(&update))
		if !ok {
			return
		}
		if err := onChunk(chunk); err != nil {
			hookErr = err
			cancel(err)
		}
	})

	y.logger.Debug().Str("url", url).Str("format", opts.Format).Bool("single", opts.SingleItem).Msg("starting yt-dlp")
	res, err := cmd.Run(ctx, url)

	mu.Lock()
	aborted := hookErr
	mu.Unlock()
	if aborted != nil {
		return fmt.Errorf("yt-dlp: %w", aborted)
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("yt-dlp: %w", context.Cause(ctx))
		}
		stderr := ""
		if res != nil {
			stderr = res.Stderr
		}
		return &ExitError{Message: engineMessage(stderr, err), Err: err}
	}
	return nil
}

// command builds the yt-dlp invocation for opts
func (y *YTDLP) command(opts Options) *ytdlp.Command {
	cmd := ytdlp.New().
		Format(opts.Format).
		Output(opts.OutputTemplate).
		RestrictFilenames()

	if opts.MergeFormat != "" {
		cmd = cmd.MergeOutputFormat(opts.MergeFormat)
	}
	if opts.SingleItem {
		cmd = cmd.NoPlaylist()
	} else {
		cmd = cmd.YesPlaylist()
	}
	return cmd
}

// engineMessage picks the last yt-dlp "ERROR:" line, falling back to err.
func engineMessage(stderr string, err error) string {
	msg := ""
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, errorLinePrefix) {
			msg = line
		}
	}
	if msg != "" {
		return msg
	}
	if err != nil {
		return err.Error()
	}
	return "unknown engine error"
}

// IsAbort reports whether err came from a callback abort.
func IsAbort(err error) bool {
	return errors.Is(err, ErrAbort)
}

// rawProgress is the subset of a yt-dlp progress update the engine uses
type rawProgress struct {
	status     string
	downloaded int64
	total      int64
	started    time.Time
	eta        time.Duration
	itemID     string
	title      string
}

// progressFromUpdate extracts the fields used by the translator
func progressFromUpdate(u *ytdlp.ProgressUpdate) rawProgress {
	p := rawProgress{
		status:     string(u.Status),
		downloaded: int64(u.DownloadedBytes),
		total:      int64(u.TotalBytes),
		started:    u.Started,
		eta:        u.ETA(),
	}
	if u.Info != nil {
		p.itemID = u.Info.ID
		if u.Info.Title != nil {
			p.title = *u.Info.Title
		}
	}
	return p
}

// translator turns yt-dlp progress into chunks, mapping item ids to
// positions of the resolved playlist.
type translator struct {
	playlist *model.Playlist
	now      func() time.Time
}

func newTranslator(pl *model.Playlist) *translator {
	return &translator{playlist: pl, now: time.Now}
}

// connecting returns the chunk sent once the source is resolved
func (t *translator) connecting() Chunk {
	c := Chunk{Status: ChunkConnecting, ETA: -1}
	if t.playlist.Len() > 0 {
		c.ItemCount = t.playlist.Len()
	}
	return c
}

func (t *translator) translate(p rawProgress) (Chunk, bool) {
	c := Chunk{
		ETA:    -1,
		ItemID: p.itemID,
		Title:  p.title,
	}
	if idx := t.playlist.IndexOf(p.itemID); idx > 0 {
		c.ItemIndex = idx
		c.ItemCount = t.playlist.Len()
	}

	switch p.status {
	case statusStarting:
		c.Status = ChunkConnecting
	case statusDownloading:
		c.Status = ChunkDownloading
		c.Downloaded = p.downloaded
		c.Total = p.total
		if p.eta > 0 {
			c.ETA = p.eta
		}
		if !p.started.IsZero() {
			if elapsed := t.now().Sub(p.started); elapsed > 0 {
				c.Speed = float64(p.downloaded) / elapsed.Seconds()
			}
		}
	case statusFinished:
		c.Status = ChunkStreamFinished
		c.Downloaded = p.downloaded
		c.Total = p.total
		if c.Total < c.Downloaded {
			c.Total = c.Downloaded
		}
	case statusPostProcessing:
		c.Status = ChunkPostprocessing
	default:
		return Chunk{}, false
	}
	return c, true
}
