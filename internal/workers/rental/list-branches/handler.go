// internal/workers/rental/list-branches/handler.go
package listbranches

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/metrics"
	"rental-workers/internal/models"
	"rental-workers/internal/workers/data-access/query-postgresql/queries"
)

const (
	TaskType = "list-branches"
)

var (
	ErrBranchQueryFailed  = errors.New("QUERY_EXECUTION_FAILED")
	ErrBranchQueryTimeout = errors.New("QUERY_TIMEOUT")
	ErrInvalidInput       = errors.New("INVALID_INPUT")
)

// Handler serves the branch directory cache-aside. A nil redis client or a
// failing Redis only costs a database read.
type Handler struct {
	config       *Config
	db           *sql.DB
	redis        *redis.Client
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		redis:        redisClient,
		logger:       scoped,
		errorHandler: apperrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if job.Variables != "" {
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			h.fail(client, job, fmt.Errorf("%w: parse input: %v", ErrInvalidInput, err))
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		input = &Input{}
	}

	if !input.Refresh {
		if branches, ok := h.fromCache(ctx); ok {
			metrics.BranchCacheLookups.WithLabelValues(SourceCache).Inc()
			return &Output{Branches: branches, Source: SourceCache}, nil
		}
	}

	branches, err := queries.ListBranches(ctx, h.db)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrBranchQueryTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrBranchQueryFailed, err)
	}
	metrics.BranchCacheLookups.WithLabelValues(SourceDatabase).Inc()

	h.toCache(ctx, branches)
	return &Output{Branches: branches, Source: SourceDatabase}, nil
}

func (h *Handler) fromCache(ctx context.Context) ([]models.Branch, bool) {
	if h.redis == nil {
		return nil, false
	}

	val, err := h.redis.Get(ctx, CacheKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("branch cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}

	var branches []models.Branch
	if err := json.Unmarshal([]byte(val), &branches); err != nil {
		h.logger.Warn("discarding corrupt branch cache entry", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return branches, true
}

func (h *Handler) toCache(ctx context.Context, branches []models.Branch) {
	if h.redis == nil {
		return
	}

	data, err := json.Marshal(branches)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, CacheKey, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("branch cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func toStandardError(err error) *apperrors.StandardError {
	queryType := "branch_list"
	switch {
	case errors.Is(err, ErrBranchQueryTimeout):
		return apperrors.NewQueryTimeoutError(queryType)
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	default:
		return apperrors.NewQueryExecutionFailedError(queryType, err)
	}
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	stdErr := toStandardError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
