// Command womenconnect serves the WomenConnect HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/womenconnect/platform/internal/adapters/auth"
	"github.com/womenconnect/platform/internal/adapters/blob"
	"github.com/womenconnect/platform/internal/adapters/http/api"
	"github.com/womenconnect/platform/internal/adapters/http/swagger"
	"github.com/womenconnect/platform/internal/adapters/repository"
	"github.com/womenconnect/platform/internal/adapters/seed"
	service "github.com/womenconnect/platform/internal/app"
	"github.com/womenconnect/platform/internal/config"
	"github.com/womenconnect/platform/pkg/logger"
	"github.com/womenconnect/platform/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is everything the server owns between startup and shutdown.
type app struct {
	cfg     *config.Config
	store   repository.Store
	blobs   *blob.FSStore
	svc     *service.Service
	watcher *seed.Watcher
	mux     *http.ServeMux
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, a.svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newApp opens storage, starts the service and registers every route.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	blobs, err := blob.NewFSStore(cfg.BlobDir, blob.WithCompression(cfg.BlobCompress))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	a := &app{cfg: cfg, store: store, blobs: blobs}

	a.svc = service.New(store, blobs,
		service.WithLogger(logger.Named("service")),
		service.WithWorkerCount(cfg.IndexWorkerCount),
		service.WithQueueSize(cfg.IndexQueueSize),
		service.WithIdempotencySize(cfg.IdempotencyCacheSize),
		service.WithAvatarLimits(cfg.AvatarMaxBytes, cfg.AvatarSize),
		service.WithMaxSearchResults(cfg.MaxSearchResults),
		service.WithLocation(time.Local),
		service.WithAuthOptions(
			auth.WithMinPasswordLength(cfg.MinPasswordLength),
			auth.WithSessionTTL(cfg.SessionTTL()),
		),
	)
	if err := a.svc.Start(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("start service: %w", err)
	}

	if cfg.SeedDir != "" {
		a.watcher = seed.NewWatcher(cfg.SeedDir, a.svc, seed.WithLocation(time.Local))
		if _, err := a.watcher.ImportDir(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("import seed dir: %w", err)
		}
		if cfg.WatchSeedDir {
			if err := a.watcher.Start(ctx); err != nil {
				a.close()
				return nil, fmt.Errorf("watch seed dir: %w", err)
			}
		}
	}

	a.mux = http.NewServeMux()
	swagger.Register(ctx, a.mux)
	api.NewServer(a.svc, cfg.AvatarMaxBytes).Register(ctx, a.mux)
	return a, nil
}

func (a *app) close() {
	log := logger.Get()
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			log.Warn(context.Background(), "seed watcher close failed", logger.Error(err))
		}
	}
	if a.svc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.svc.Stop(ctx); err != nil {
			log.Error(ctx, "indexer shutdown failed", logger.Error(err))
		}
		cancel()
	}
	if err := a.blobs.Close(); err != nil {
		log.Warn(context.Background(), "blob store close failed", logger.Error(err))
	}
	if err := a.store.Close(); err != nil {
		log.Warn(context.Background(), "store close failed", logger.Error(err))
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats, err := svc.GetStats(ctx)
	if err != nil {
		logger.Get().Warn(ctx, "collect service stats failed", logger.Error(err))
		return
	}
	metrics.UpdateQueueSize(stats.QueueLength)
	metrics.UpdateWorkerCount(stats.Workers)
	metrics.UpdateSessions(stats.Sessions)
	metrics.UpdateStoreRecords("users", stats.Users)
	metrics.UpdateStoreRecords("events", stats.Events)
	metrics.UpdateStoreRecords("stories", stats.Stories)
}
