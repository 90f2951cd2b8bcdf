// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"catalog-lookup-workers/internal/catalog"
	"catalog-lookup-workers/internal/common/camunda"
	"catalog-lookup-workers/internal/common/config"
	"catalog-lookup-workers/internal/common/database"
	"catalog-lookup-workers/internal/common/logger"
	"catalog-lookup-workers/internal/common/observability"

	ris "catalog-lookup-workers/internal/workers/lookup/resolve-item-specs"
	sc "catalog-lookup-workers/internal/workers/lookup/search-categories"
	sp "catalog-lookup-workers/internal/workers/lookup/search-products"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry (postgres reference source only) ---
	var pg *database.PostgresClient
	if cfg.Reference.Source == catalog.SourcePostgres {
		err = camunda.RetryWithBackoff(ctx, &camunda.RetryConfig{
			MaxRetries: 15,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		}, log, "PostgreSQL connection", func(ctx context.Context) error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				pg.Close()
				return err
			}
			return nil
		})
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Load reference data ---
	dataset, err := catalog.LoadDataset(ctx, cfg.Reference, pg.GetDB(), log)
	if err != nil {
		// Lookups on a failed table report REFERENCE_LOAD_FAILED; the rest keep serving.
		zapLog.Warn("reference data partially loaded", zap.Error(err))
	}

	store := catalog.NewTemplateStore(cfg.Reference.SpecsPath, cfg.Reference.CacheTemplates, log)
	defer store.Close()
	if _, err := store.Document(ctx); err != nil {
		// Lookups report REFERENCE_LOAD_FAILED until the workbook is readable.
		zapLog.Warn("item specs workbook not loaded", zap.Error(err))
	}

	// --- Init Redis result cache (optional) ---
	var redis *database.RedisClient
	if cfg.Cache.Enabled {
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err == nil && redis != nil {
			err = redis.Ping(ctx)
		}
		if err != nil {
			zapLog.Warn("redis unavailable, result cache disabled", zap.Error(err))
			redis.Close()
			redis = nil
		} else if redis != nil {
			defer redis.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Init Zeebe Client with retry ---
	zeebeClient, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig:            camunda.DefaultRetryConfig,
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Register workers ---
	var workers []worker.JobWorker
	register := func(taskType string, newHandler func() worker.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled by configuration", zap.String("taskType", taskType))
			return
		}
		if jw := camunda.StartWorker(zeebeClient, taskType, config.GetWorkerConfig(cfg, taskType), newHandler(), obs, log); jw != nil {
			workers = append(workers, jw)
		}
	}

	rdb := redis.GetClient()
	register(sp.TaskType, func() worker.JobHandler {
		return sp.NewHandler(sp.FromAppConfig(cfg), dataset, rdb, log).Handle
	})
	register(sc.TaskType, func() worker.JobHandler {
		return sc.NewHandler(sc.FromAppConfig(cfg), dataset, rdb, log).Handle
	})
	register(ris.TaskType, func() worker.JobHandler {
		return ris.NewHandler(ris.FromAppConfig(cfg), store, log).Handle
	})
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           newStatusMux(zeebeClient, dataset, rdb != nil),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, jw := range workers {
		jw.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func newStatusMux(client zbc.Client, dataset *catalog.Dataset, cacheEnabled bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ready", http.StatusOK
		zeebe := "ok"
		if err := camunda.HealthCheck(r.Context(), client); err != nil {
			status, code = "not_ready", http.StatusServiceUnavailable
			zeebe = err.Error()
		}
		writeJSON(w, code, map[string]interface{}{
			"status":      status,
			"zeebe":       zeebe,
			"products":    tableStatus(dataset.ProductCount(), dataset.ProductsErr()),
			"categories":  tableStatus(dataset.CategoryCount(), dataset.CategoriesErr()),
			"resultCache": cacheEnabled,
			"time":        time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func tableStatus(rows int, err error) map[string]interface{} {
	status := map[string]interface{}{"rows": rows}
	if err != nil {
		status["error"] = err.Error()
	}
	return status
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
