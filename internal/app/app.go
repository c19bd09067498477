// Package app wires the store, settings, external clients and pipeline from
// configuration. It is shared by the server binary and the CLI.
package app

import (
	"context"
	"log/slog"

	"autoblogger/internal/config"
	"autoblogger/internal/images"
	"autoblogger/internal/pipeline"
	"autoblogger/internal/refs"
	"autoblogger/internal/settings"
	"autoblogger/internal/store"
)

// App is the assembled application.
type App struct {
	Config   config.Config
	Store    *store.Store
	Settings *settings.Files
	Pipeline *pipeline.Pipeline
}

// New loads configuration, opens the store and builds the pipeline. Stale run
// leases left behind by a previous process are cleared here.
func New(ctx context.Context) (*App, error) {
	cfg := config.Load()

	s, err := store.Open(cfg.DBPath, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	if n, err := s.ResetStaleRunning(ctx); err != nil {
		slog.Warn("reset stale running flags", "error", err)
	} else if n > 0 {
		slog.Info("cleared stale run leases", "count", n)
	}

	set := settings.NewFiles(cfg.DataDir)

	var (
		search   images.Searcher
		download images.Downloader
		pubmed   refs.Searcher
	)
	if cfg.UseStubs {
		slog.Info("USE_STUBS set, using stub image/reference clients")
		search = &images.StubSearcher{}
		download = &images.StubDownloader{}
		pubmed = &refs.StubSearcher{}
	} else {
		commons := images.NewCommonsClient(cfg.HTTPTimeout, cfg.MaxImageBytes)
		search = commons
		download = commons
		pubmed = refs.NewPubmedClient(cfg.HTTPTimeout)
	}

	fetcher := images.NewFetcher(search, download, s)
	pl := pipeline.New(s, set, fetcher, pubmed, cfg.StageDelay)

	return &App{Config: cfg, Store: s, Settings: set, Pipeline: pl}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
