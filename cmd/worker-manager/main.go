// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"findata-workers/internal/api"
	"findata-workers/internal/cache"
	"findata-workers/internal/common/camunda"
	"findata-workers/internal/common/config"
	"findata-workers/internal/common/database"
	httpclient "findata-workers/internal/common/http"
	"findata-workers/internal/common/logger"
	"findata-workers/internal/common/observability"
	"findata-workers/internal/retriever"
	"findata-workers/internal/sources"
	"findata-workers/internal/sources/domainenrich"
	"findata-workers/internal/sources/peopleenrich"
	"findata-workers/internal/sources/searchresults"
	"findata-workers/internal/sources/webscrape"

	rfd "findata-workers/internal/workers/financial-data/retrieve-financial-data"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting findata worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("cacheBackend", cfg.Cache.Backend),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()
	checks := map[string]api.Check{}

	// --- Cache backends, only the ones the selected backend needs ---
	var backends cache.Backends
	needsPostgres := cfg.Cache.Backend == config.CacheBackendPostgres || cfg.Cache.Backend == config.CacheBackendTiered
	needsRedis := cfg.Cache.Backend == config.CacheBackendRedis || cfg.Cache.Backend == config.CacheBackendTiered

	if needsPostgres {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(ctx, cfg.Database.Postgres)
			return err
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		backends.Postgres = pg.DB
		checks["postgres"] = pg.Ping
	}

	if needsRedis {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(ctx, cfg.Database.Redis)
			return err
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		zapLog.Info("Redis connected successfully")

		backends.Redis = rdb.Client
		checks["redis"] = rdb.Ping
	}

	store, err := cache.New(cfg.Cache, backends, log)
	if err != nil {
		zapLog.Fatal("cache init failed", zap.Error(err))
	}
	if m, ok := store.(cache.Migrator); ok && cfg.Cache.Migrate {
		if err := m.Migrate(ctx); err != nil {
			zapLog.Fatal("cache migration failed", zap.Error(err))
		}
		zapLog.Info("Cache schema migrated")
	}

	// --- Sources and retriever ---
	httpOpts := []httpclient.Option{}
	if ua := cfg.Sources.WebScrape.UserAgent; ua != "" {
		httpOpts = append(httpOpts, httpclient.WithUserAgent(ua))
	}
	hc := httpclient.NewClient(httpOpts...)

	chain, resolver := buildSources(cfg.Sources, hc, log)
	if len(chain) == 0 {
		zapLog.Warn("No sources enabled; every retrieval will fail")
	}
	ret := retriever.New(retriever.ConfigFrom(cfg.Retrieval), store, resolver, chain, log)

	// --- Workflow worker ---
	var zeebeClient zbc.Client
	var jobWorkers []worker.JobWorker
	if cfg.Camunda.Enabled {
		zeebeClient, err = camunda.Connect(ctx, cfg.Camunda, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
		checks["zeebe"] = func(ctx context.Context) error { return camunda.HealthCheck(ctx, zeebeClient) }

		wcfg := config.GetWorkerConfig(cfg, rfd.TaskType)
		if wcfg.Enabled {
			handler := rfd.NewHandler(rfd.LoadConfig(wcfg), ret, obs, log)
			jobWorkers = append(jobWorkers, camunda.StartWorker(zeebeClient, rfd.TaskType, wcfg, cfg.Camunda, handler.Handle, log))
		} else {
			zapLog.Info("worker disabled", zap.String("taskType", rfd.TaskType))
		}
	}

	// --- HTTP API, health and metrics ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.New(ret, checks, log).Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		zapLog.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range jobWorkers {
		w.Close()
		w.AwaitClose()
	}
	if zeebeClient != nil {
		if err := zeebeClient.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// buildSources returns the enabled fallback chain in priority order and the
// domain resolver, which is not part of the chain.
func buildSources(sc config.SourcesConfig, hc *httpclient.Client, log logger.Logger) ([]sources.Source, retriever.DomainResolver) {
	var chain []sources.Source
	if sc.WebScrape.Enabled {
		chain = append(chain, webscrape.New(webscrape.ConfigFrom(sc.WebScrape), hc, log))
	}
	if sc.PeopleEnrichment.Enabled {
		chain = append(chain, peopleenrich.New(peopleenrich.ConfigFrom(sc.PeopleEnrichment), hc, log))
	}
	if sc.Search.Enabled {
		chain = append(chain, searchresults.New(searchresults.ConfigFrom(sc.Search), hc, log))
	}

	var resolver retriever.DomainResolver
	if sc.DomainEnrichment.Enabled {
		resolver = domainenrich.New(domainenrich.ConfigFrom(sc.DomainEnrichment), hc, log)
	}
	return chain, resolver
}
