// Package app assembles the vault process: the store, the access facade,
// the search index, and cloud sync, wired according to configuration.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quickmark/qrvault/internal/config"
	"github.com/quickmark/qrvault/internal/logging"
	"github.com/quickmark/qrvault/internal/repositories/qrcodes"
	"github.com/quickmark/qrvault/internal/search"
	"github.com/quickmark/qrvault/internal/store"
	"github.com/quickmark/qrvault/internal/sync"
	"github.com/quickmark/qrvault/internal/vault"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   *store.Store
	vault   *vault.Vault
	indexer search.Indexer
	engine  sync.Engine
}

// NewApp opens the store and builds every component the configuration asks
// for. Disabled capabilities get no-op implementations, so callers never
// branch on configuration themselves.
func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout)

	st, err := store.Open(context.Background(), store.Config{
		InMemory: c.InMemory,
		GroupDir: c.GroupDir,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	v := vault.NewFromStore(st, logger)

	var indexer search.Indexer = search.NewNoopIndexer()
	if c.SearchEnabled {
		indexer = search.NewFTSIndexer(st, qrcodes.NewSQLiteRepository(st), logger)
	}

	engine, err := buildEngine(context.Background(), c, st, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &App{
		config:  c,
		logger:  logger,
		store:   st,
		vault:   v,
		indexer: indexer,
		engine:  engine,
	}, nil
}

// buildEngine picks the sync implementation. Sync stays off for in-memory
// stores and when no cloud account is reachable.
func buildEngine(ctx context.Context, c *config.Config, st *store.Store, logger logging.Logger) (sync.Engine, error) {
	if !c.SyncEnabled || c.InMemory {
		return sync.NewNoopEngine(), nil
	}

	syncCfg := sync.Config{
		Container:       c.SyncContainer,
		Region:          c.SyncRegion,
		Endpoint:        c.SyncEndpoint,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		Passphrase:      c.Passphrase,
		Interval:        c.SyncInterval,
	}

	if !sync.AccountAvailable(ctx, syncCfg) {
		logger.Warn(ctx, "cloud account unavailable, sync disabled")
		return sync.NewNoopEngine(), nil
	}

	engine, err := sync.NewS3Engine(ctx, st, syncCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sync init error: %w", err)
	}
	return engine, nil
}

// Vault exposes the record access facade for embedding callers.
func (app *App) Vault() *vault.Vault {
	return app.vault
}

// Indexer exposes the search capability for embedding callers.
func (app *App) Indexer() search.Indexer {
	return app.indexer
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the background components and blocks until the context is
// cancelled or a termination signal arrives, then shuts down in reverse
// start order.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting vault",
		"in_memory", app.config.InMemory,
		"search", app.config.SearchEnabled,
		"sync", app.config.SyncEnabled)

	app.initSignalHandler(cancelFunc)

	if err := app.indexer.Start(ctx); err != nil {
		return fmt.Errorf("search index start error: %w", err)
	}
	if err := app.engine.Start(ctx); err != nil {
		app.indexer.Stop()
		return fmt.Errorf("sync start error: %w", err)
	}

	<-ctx.Done()

	app.logger.Info(context.Background(), "shutting down")
	app.engine.Stop()
	app.indexer.Stop()
	return app.store.Close()
}
