// Package server assembles the moodkeeper server: PostgreSQL repositories,
// the selfie image store, the worker runner, the services and the HTTP
// transport. Run blocks until SIGINT/SIGTERM and then shuts down gracefully.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/server/config"
	"github.com/dmitrijs2005/moodkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/moodkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moodkeeper/internal/server/retraining"
	"github.com/dmitrijs2005/moodkeeper/internal/server/services"
	"github.com/dmitrijs2005/moodkeeper/internal/server/sessioncache"
	"github.com/dmitrijs2005/moodkeeper/internal/server/storage"
	"github.com/dmitrijs2005/moodkeeper/internal/server/worker"
	"github.com/dmitrijs2005/moodkeeper/internal/timex"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	repos   repomanager.RepositoryManager
	redis   *redis.Client
	handler http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, "json", cfg.LogLevel)

	loc, err := timex.LoadLocation(cfg.ReferenceTimeZone)
	if err != nil {
		return nil, fmt.Errorf("reference time zone: %w", err)
	}

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	app := &App{config: cfg, logger: logger, db: db, repos: repos}

	store, err := newImageStore(ctx, cfg)
	if err != nil {
		app.close()
		return nil, err
	}

	var cache sessioncache.Cache = sessioncache.NewMemory(cfg.SessionTTL)
	if cfg.RedisURL != "" {
		client, err := sessioncache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			app.close()
			return nil, err
		}
		app.redis = client
		cache = sessioncache.NewRedis(client, cfg.SessionTTL)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	runner := worker.NewRunner(cfg.MaxWorkers, cfg.WorkerTimeout, logger, m)
	capture := retraining.NewCapture(repos.Retraining, store, m, logger)

	app.handler = httpapi.NewRouter(httpapi.Deps{
		Users:       services.NewUserService(db, repos, cache, cfg, logger),
		Journals:    services.NewJournalService(db, repos, capture, logger),
		Selfies:     services.NewSelfieService(db, repos, store, capture, logger),
		Ratings:     services.NewRatingService(db, repos, loc, logger),
		Predictions: services.NewPredictionService(runner, m, cfg, logger),
		SecretKey:   []byte(cfg.SecretKey),
		ModelDir:    cfg.ModelDir,
		Logger:      logger,
		Counter:     m,
		Gatherer:    reg,
	})

	return app, nil
}

func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	switch cfg.ImageStore {
	case config.ImageStoreFS:
		return storage.NewFSStore(cfg.ImageDir, cfg.RetrainingImageDir)
	case config.ImageStoreS3:
		return storage.NewS3Store(ctx, storage.S3Config{
			User:         cfg.S3RootUser,
			Password:     cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	}
	return nil, fmt.Errorf("unknown image store %q", cfg.ImageStore)
}

func (app *App) close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}

// ExportRetraining writes the retraining corpus of one kind to w as a JSON
// array, oldest capture first.
func (app *App) ExportRetraining(ctx context.Context, kind models.RetrainingKind, w io.Writer) error {
	defer app.close()

	if kind != models.RetrainingJournal && kind != models.RetrainingSelfie {
		return fmt.Errorf("unknown retraining kind %q", kind)
	}
	recs, err := app.repos.Retraining(app.db).ListByKind(ctx, kind)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}
