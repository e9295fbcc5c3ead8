package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/ytget/ytgrab/internal/config"
	"github.com/ytget/ytgrab/internal/download"
	"github.com/ytget/ytgrab/internal/engine"
	"github.com/ytget/ytgrab/internal/history"
	"github.com/ytget/ytgrab/internal/logging"
	"github.com/ytget/ytgrab/internal/metrics"
	"github.com/ytget/ytgrab/internal/platform"
	"github.com/ytget/ytgrab/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.ytgrab"
	AppName = "YT Grab"

	shutdownTimeout = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ./config.yaml or the user config dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	savePath := *configPath
	if savePath == "" {
		savePath = filepath.Join(config.DefaultConfigDir(), config.DefaultConfigFile)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.Logging.Path,
	})
	defer logger.Close()
	logger.Info().Str("version", version).Msg("YT Grab starting")

	if err := platform.CreateDirectoryIfNotExists(cfg.Download.Directory); err != nil {
		logger.Warn().Err(err).Str("dir", cfg.Download.Directory).Msg("failed to ensure downloads dir")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("history unavailable, keeping it in memory")
		store, _ = history.Open("")
	}
	defer store.Close()

	opts := []download.Option{
		download.WithLogger(logger.Logger),
		download.WithHistory(store),
	}
	if locker, err := platform.NewURLLocker(""); err != nil {
		logger.Warn().Err(err).Msg("URL locks disabled")
	} else {
		opts = append(opts, download.WithURLLocker(locker))
	}

	resolver := platform.NewPlaylistResolver(logger.WithComponent("playlist"))
	eng := engine.NewYTDLP(
		engine.WithResolver(resolver),
		engine.WithLogger(logger.WithComponent("engine")),
	)
	downloadSvc := download.NewService(eng, cfg.Download, opts...)

	if cfg.Metrics.Enabled {
		srv := metrics.NewHTTPServer(cfg.Metrics.MetricsAddress())
		go func() {
			logger.Info().Str("addr", srv.Addr).Msg("metrics server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
	}

	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	myWindow := myApp.NewWindow(fmt.Sprintf("%s v%s", AppName, version))
	myWindow.Resize(fyne.NewSize(ui.WindowWidth, ui.WindowHeight))

	ui.NewRootUI(myApp, myWindow, downloadSvc, store, *cfg, savePath, logger.Logger)

	myWindow.ShowAndRun()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := downloadSvc.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("downloads still running at exit")
	}
	logger.Info().Msg("YT Grab stopped")
}
