// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rental-workers/internal/app"
	"rental-workers/internal/common/aws"
	"rental-workers/internal/common/camunda"
	"rental-workers/internal/common/config"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/observability"

	ap "rental-workers/internal/workers/ai-rental/analyze-prompt"
	qe "rental-workers/internal/workers/data-access/query-elasticsearch"
	esqueries "rental-workers/internal/workers/data-access/query-elasticsearch/queries"
	qp "rental-workers/internal/workers/data-access/query-postgresql"
	sr "rental-workers/internal/workers/notification/send-recommendation"
	lb "rental-workers/internal/workers/rental/list-branches"
	rv "rental-workers/internal/workers/rental/recommend-vehicles"
)

const healthAddr = ":8080"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	obs, err := observability.New("worker-manager", app.TraceOptions(cfg.Tracing)...)
	if err != nil {
		zapLog.Warn("observability setup incomplete", zap.Error(err))
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = app.RetryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(camunda.ConfigFrom(cfg.Camunda), log)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Postgres, Elasticsearch, Redis ---
	res, err := app.Connect(ctx, cfg, 15, zapLog)
	if err != nil {
		zapLog.Fatal("backing stores failed after retries", zap.Error(err))
	}
	defer res.Close()

	indexName := cfg.Database.Elasticsearch.VehicleIndex
	if es := res.ESClient(); es != nil {
		if err := esqueries.EnsureIndex(ctx, es, indexName); err != nil {
			zapLog.Error("vehicle index check failed", zap.String("index", indexName), zap.Error(err))
		}
	}

	service, geminiClient, err := app.NewRecommendationService(cfg, res, obs, log)
	if err != nil {
		zapLog.Fatal("recommendation service setup failed", zap.Error(err))
	}

	// --- Workers ---
	client := zeebe.GetClient()
	var jobWorkers []worker.JobWorker
	start := func(taskType string, handler worker.JobHandler) {
		if jw := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, log); jw != nil {
			jobWorkers = append(jobWorkers, jw)
		}
	}

	apCfg := ap.LoadConfig()
	apCfg.Timeout = workerTimeout(cfg, ap.TaskType, apCfg.Timeout)
	apCfg.Options = app.RecommendationOptions(cfg.Recommendation)
	start(ap.TaskType, ap.NewHandler(apCfg, geminiClient, log).Handle)

	rvCfg := rv.LoadConfig()
	rvCfg.Timeout = workerTimeout(cfg, rv.TaskType, rvCfg.Timeout)
	start(rv.TaskType, rv.NewHandler(rvCfg, service, log).Handle)

	qpCfg := qp.LoadConfig()
	qpCfg.Timeout = workerTimeout(cfg, qp.TaskType, qpCfg.Timeout)
	start(qp.TaskType, qp.NewHandler(qpCfg, res.Postgres.DB, log).Handle)

	if es := res.ESClient(); es != nil {
		qeCfg := qe.LoadConfig()
		qeCfg.Timeout = workerTimeout(cfg, qe.TaskType, qeCfg.Timeout)
		qeCfg.Index = indexName
		start(qe.TaskType, qe.NewHandler(qeCfg, es, log).Handle)
	} else {
		zapLog.Info("worker skipped, elasticsearch not configured", zap.String("taskType", qe.TaskType))
	}

	lbCfg := lb.LoadConfig()
	lbCfg.Timeout = workerTimeout(cfg, lb.TaskType, lbCfg.Timeout)
	lbCfg.CacheTTL = time.Duration(cfg.Database.Redis.CacheTTL) * time.Second
	start(lb.TaskType, lb.NewHandler(lbCfg, res.Postgres.DB, res.RedisClient(), log).Handle)

	srCfg := sr.LoadConfig()
	srCfg.Timeout = workerTimeout(cfg, sr.TaskType, srCfg.Timeout)
	srCfg.EmailEnabled = cfg.Notifications.Email.Enabled
	srCfg.FromEmail = cfg.Notifications.Email.FromEmail
	srCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
	srCfg.SenderID = cfg.Notifications.SMS.SenderID
	email, sms := notificationSenders(ctx, cfg, zapLog)
	start(sr.TaskType, sr.NewHandler(srCfg, email, sms, log).Handle)

	zapLog.Info("workers registered", zap.Int("count", len(jobWorkers)))

	// --- Health & Metrics Server ---
	var ready atomic.Bool
	ready.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := res.Postgres.Ping(pingCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	healthServer := &http.Server{Addr: healthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", healthAddr))
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, jw := range jobWorkers {
		jw.Close()
		jw.AwaitClose()
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if obs != nil {
		if err := obs.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("Error stopping observability", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// workerTimeout prefers the per-worker timeout from configuration.
func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if wcfg, ok := cfg.Workers[taskType]; ok && wcfg.Timeout > 0 {
		return config.GetDuration(wcfg.Timeout)
	}
	return fallback
}

// notificationSenders returns only the AWS clients whose channel is enabled.
// A disabled channel gets a nil interface, never a typed nil.
func notificationSenders(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (sr.EmailSender, sr.SMSSender) {
	var (
		email sr.EmailSender
		sms   sr.SMSSender
	)
	region := cfg.Notifications.AWS.Region

	if cfg.Notifications.Email.Enabled {
		client, err := aws.NewSESClient(ctx, region)
		if err != nil {
			zapLog.Error("SES client init failed, email disabled", zap.Error(err))
		} else {
			email = client
		}
	}
	if cfg.Notifications.SMS.Enabled {
		client, err := aws.NewSNSClient(ctx, region)
		if err != nil {
			zapLog.Error("SNS client init failed, SMS disabled", zap.Error(err))
		} else {
			sms = client
		}
	}
	return email, sms
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
