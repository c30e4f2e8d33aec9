// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"rental-workers/internal/common/config"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/metrics"
	"rental-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Instrument wraps a job handler with the active-jobs gauge, the duration
// histogram and the OpenTelemetry job instruments. obs may be nil.
func Instrument(taskType string, handler worker.JobHandler, obs *observability.Observability, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		status := "handled"

		defer func() {
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			if r := recover(); r != nil {
				status = "panic"
				metrics.WorkerJobsFailed.WithLabelValues(taskType, "PANIC").Inc()
				log.Error("job handler panicked", map[string]interface{}{
					"taskType": taskType,
					"jobKey":   job.Key,
					"panic":    r,
				})
			}

			elapsed := time.Since(start)
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			if obs != nil {
				ctx := context.Background()
				obs.RecordJobProcessed(ctx, taskType, status)
				obs.RecordJobDuration(ctx, taskType, elapsed, status)
			}
		}()

		handler(client, job)
	}
}

// StartWorker opens an instrumented job worker. It returns nil when the
// worker is disabled in configuration.
func StartWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler worker.JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs, log)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jw
}
