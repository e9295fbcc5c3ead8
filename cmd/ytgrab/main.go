// Command ytgrab downloads media from the command line, one cancellable
// transfer per URL. Ctrl+C cancels every running transfer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/ytgrab/internal/config"
	"github.com/ytget/ytgrab/internal/download"
	"github.com/ytget/ytgrab/internal/engine"
	"github.com/ytget/ytgrab/internal/history"
	"github.com/ytget/ytgrab/internal/logging"
	"github.com/ytget/ytgrab/internal/model"
	"github.com/ytget/ytgrab/internal/platform"
	"github.com/ytget/ytgrab/internal/transfer"
)

// Exit codes
const (
	exitOK          = 0
	exitFailed      = 1
	exitUsage       = 2
	exitInterrupted = 130
)

var errInterrupted = errors.New("interrupted")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ytgrab", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	quality := fs.String("quality", "", "maximum video height, e.g. 720p or best (default from config)")
	outDir := fs.String("o", "", "output directory (default from config)")
	playlist := fs.Bool("playlist", false, "download the whole playlist")
	parallel := fs.Int("j", 0, "parallel downloads (default from config)")
	verbose := fs.Bool("v", false, "debug logging")
	historyLimit := fs.Int("history", 0, "print the last N recorded downloads and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: ytgrab [flags] URL [URL...]")
		fmt.Fprintln(stderr, "       ytgrab -history N")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 && *historyLimit <= 0 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "ytgrab: %v\n", err)
		return exitFailed
	}
	if *historyLimit > 0 {
		if err := printHistory(cfg.History.Path, *historyLimit, stdout); err != nil {
			fmt.Fprintf(stderr, "ytgrab: %v\n", err)
			return exitFailed
		}
		return exitOK
	}
	if *outDir != "" {
		cfg.Download.Directory = *outDir
	}
	if *parallel > 0 {
		cfg.Download.MaxParallel = config.ClampParallel(*parallel)
	}
	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level, Format: cfg.Logging.Format, Path: cfg.Logging.Path, Output: stderr})
	defer logger.Close()

	builder := download.NewRequestBuilder(config.Qualities(), cfg.Download)
	reqs := make([]model.Request, 0, fs.NArg())
	for _, url := range fs.Args() {
		req, err := builder.Build(url, *quality, *playlist || platform.IsPlaylistURL(url))
		if err != nil {
			fmt.Fprintf(stderr, "ytgrab: %v\n", err)
			return exitUsage
		}
		reqs = append(reqs, req)
	}
	if err := platform.CreateDirectoryIfNotExists(cfg.Download.Directory); err != nil {
		fmt.Fprintf(stderr, "ytgrab: %v\n", err)
		return exitFailed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.NewYTDLP(
		engine.WithResolver(platform.NewPlaylistResolver(logger.WithComponent("playlist"))),
		engine.WithLogger(logger.WithComponent("engine")),
	)
	c := &cli{
		eng:    eng,
		retry:  retryPolicy(cfg.Download),
		out:    &syncWriter{w: stdout},
		logger: logger.WithComponent("cli"),
	}
	// a running GUI holds the database; downloads go on without history then
	if store, err := history.Open(cfg.History.Path); err != nil {
		c.logger.Warn().Err(err).Msg("history unavailable")
	} else {
		defer store.Close()
		c.history = store
	}
	return c.downloadAll(ctx, reqs, cfg.Download.MaxParallel)
}

// printHistory writes the most recent entries of the store at path
func printHistory(path string, limit int, w io.Writer) error {
	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	entries, err := store.List(limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "no downloads recorded")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(w, e.Summary())
	}
	return nil
}

type cli struct {
	eng     engine.Engine
	retry   download.RetryPolicy
	out     *syncWriter
	logger  zerolog.Logger
	history *history.Store
}

// downloadAll runs every request with at most parallel transfers at once
func (c *cli) downloadAll(ctx context.Context, reqs []model.Request, parallel int) int {
	var g errgroup.Group
	g.SetLimit(config.ClampParallel(parallel))

	var mu sync.Mutex
	failed, interrupted := 0, 0
	for _, req := range reqs {
		g.Go(func() error {
			err := c.download(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, errInterrupted):
				interrupted++
			case err != nil:
				failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	switch {
	case failed > 0:
		return exitFailed
	case interrupted > 0:
		return exitInterrupted
	default:
		return exitOK
	}
}

// download runs one request, retrying network failures
func (c *cli) download(ctx context.Context, req model.Request) error {
	started := time.Now()
	for attempt := 1; ; attempt++ {
		ev := c.transferOnce(ctx, req)
		switch ev.Phase {
		case model.PhaseFinished:
			c.out.Printf("%s: %s (%s)\n", req.URL, ev.Status, ev.SizeString())
			c.record(req, ev, attempt, started)
			return nil
		case model.PhaseCancelled:
			c.out.Printf("%s: %s\n", req.URL, ev.Status)
			c.record(req, ev, attempt, started)
			return errInterrupted
		}

		if !c.retry.ShouldRetry(ev.Err, attempt) {
			c.out.Printf("%s: failed: %s\n", req.URL, ev.Message())
			c.record(req, ev, attempt, started)
			return ev.Err
		}
		delay := c.retry.Delay(attempt)
		c.logger.Warn().Err(ev.Err).Str("url", req.URL).Int("attempt", attempt).Dur("next_retry_in", delay).Msg("network error, will retry")
		select {
		case <-ctx.Done():
			c.out.Printf("%s: %s\n", req.URL, transfer.StatusCancelled)
			c.record(req, model.Event{Phase: model.PhaseCancelled, Status: transfer.StatusCancelled, Title: ev.Title}, attempt, started)
			return errInterrupted
		case <-time.After(delay):
		}
	}
}

// record stores the outcome of a request in the history, if one is open
func (c *cli) record(req model.Request, ev model.Event, attempts int, started time.Time) {
	if c.history == nil {
		return
	}
	e := history.Entry{
		ID:         uuid.NewString(),
		URL:        req.Locator(),
		Title:      ev.Title,
		Phase:      ev.Phase,
		Message:    ev.Message(),
		Bytes:      ev.Downloaded,
		Attempts:   attempts,
		StartedAt:  started,
		FinishedAt: ev.At,
	}
	if err := c.history.Record(e); err != nil {
		c.logger.Warn().Err(err).Str("url", req.URL).Msg("failed to record history")
	}
}

// transferOnce runs a single transfer and returns its terminal event
func (c *cli) transferOnce(ctx context.Context, req model.Request) model.Event {
	tr := transfer.New(c.eng, transfer.WithLogger(c.logger.With().Str("url", req.URL).Logger()))

	var (
		last     model.Event
		lastLine time.Time
		terminal = make(chan model.Event, 1)
	)
	tr.Start(ctx, req, func(ev model.Event) {
		if ev.IsTerminal() {
			terminal <- ev
			return
		}
		// one line per phase change, then at most one per second
		if ev.Phase != last.Phase || time.Since(lastLine) >= time.Second {
			c.out.Printf("%s\n", progressLine(req.URL, ev))
			lastLine = time.Now()
		}
		last = ev
	})
	return <-terminal
}

// progressLine formats a progress event for the terminal
func progressLine(url string, ev model.Event) string {
	line := fmt.Sprintf("%s: [%s] %3d%%", url, ev.Phase, ev.PercentInt())
	if item := ev.ItemString(); item != "" {
		line += " item " + item
	}
	line += fmt.Sprintf(" %s %s ETA %s", ev.SizeString(), ev.SpeedString(), ev.ETAString())
	if ev.Title != "" {
		line += " " + ev.Title
	}
	return line
}

func retryPolicy(d config.DownloadConfig) download.RetryPolicy {
	p := download.DefaultRetryPolicy()
	p.MaxRetries = d.Retries
	if d.RetryDelay > 0 {
		p.InitialDelay = d.RetryDelay
	}
	return p
}

// syncWriter serializes lines written by concurrent transfers
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}
