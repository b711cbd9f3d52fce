// Package server assembles the catalog service: storage backends, the
// search index, background daemons and the HTTP and gRPC listeners.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/config"
	"github.com/dmitrijs2005/catalog/internal/server/daemons"
	"github.com/dmitrijs2005/catalog/internal/server/httpapi"
	"github.com/dmitrijs2005/catalog/internal/server/metrics"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/catalog/internal/server/search"
	"github.com/dmitrijs2005/catalog/internal/server/seed"
	"github.com/dmitrijs2005/catalog/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/catalog/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	index       search.Index
	catalog     *services.CatalogService
	indexSync   *daemons.IndexSync
	retention   *daemons.Retention
}

// NewApp opens the configured backends. "memory" as the DSN or the index URL
// selects the in-process implementation.
func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.New(os.Stdout, c.LogLevel)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mt := metrics.New(registry)

	app := &App{config: c, logger: logger, registry: registry, metrics: mt}

	if c.DatabaseDSN == config.MemoryBackend {
		app.repomanager = repomanager.NewMemoryRepositoryManager()
	} else {
		db, err := sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db
		app.repomanager = repomanager.NewPostgresRepositoryManager()
	}

	if c.IndexURL == config.MemoryBackend {
		app.index = search.NewMemoryIndex()
	} else {
		idx, err := search.NewElasticIndex(c.IndexURL, c.IndexName, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("index init error: %w", err)
		}
		app.index = idx
	}

	app.catalog = services.NewCatalogService(app.db, app.repomanager, app.index, logger)
	app.indexSync = daemons.NewIndexSync(app.db, app.repomanager, app.index, c.IndexSyncBatchSize, logger, mt)
	app.retention = daemons.NewRetention(app.db, app.repomanager, logger, mt)

	return app, nil
}

// Init migrates the schema, creates the search index and imports the seed
// source when one is configured.
func (app *App) Init(ctx context.Context) error {
	if app.db != nil {
		if err := app.db.PingContext(ctx); err != nil {
			return fmt.Errorf("db ping: %w", err)
		}
	}

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	if err := app.index.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}

	if app.config.SeedSource != "" {
		imp := seed.NewImporter(app.db, app.repomanager, 0, app.logger)
		if _, err := imp.Run(ctx, app.config.SeedSource, seed.S3Options{
			Region:       app.config.S3Region,
			User:         app.config.S3RootUser,
			Password:     app.config.S3RootPassword,
			BaseEndpoint: app.config.S3BaseEndpoint,
		}); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	return nil
}

// Close releases the database pool.
func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}

func (app *App) handler() http.Handler {
	h := httpapi.NewHandler(app.catalog, httpapi.Options{
		DefaultPageSize: app.config.DefaultPageSize,
		MaxPageSize:     app.config.MaxPageSize,
		RequestTimeout:  app.config.RequestTimeout,
	}, app.logger, app.metrics)
	return h.Router(app.registry)
}

func (app *App) daemonOptions(interval time.Duration) daemons.Options {
	return daemons.Options{
		Interval: interval,
		Timeout:  app.config.CycleTimeout,
		Logger:   app.logger,
		Metrics:  app.metrics,
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or a
// listener fails. Daemons are stopped after the listeners have drained.
func (app *App) Run(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	syncer := daemons.NewIndexSyncDaemon(app.indexSync, app.daemonOptions(app.config.IndexSyncInterval))
	retention := daemons.NewRetentionDaemon(app.retention, app.daemonOptions(app.config.RetentionInterval))
	syncer.Start(ctx)
	retention.Start(ctx)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	syncer.Shutdown()
	retention.Shutdown()

	app.logger.Info(context.Background(), "App stopped")
}
