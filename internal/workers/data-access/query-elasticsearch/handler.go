// internal/workers/data-access/query-elasticsearch/handler.go
package queryelasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/metrics"
	"rental-workers/internal/models"
	"rental-workers/internal/workers/data-access/query-elasticsearch/queries"
)

const (
	TaskType = "query-elasticsearch"
)

var (
	ErrElasticsearchConnectionFailed = errors.New("ELASTICSEARCH_CONNECTION_FAILED")
	ErrSearchQueryFailed             = errors.New("SEARCH_QUERY_FAILED")
	ErrSearchTimeout                 = errors.New("SEARCH_TIMEOUT")
	ErrIndexNotFound                 = errors.New("INDEX_NOT_FOUND")
	ErrInvalidQueryType              = errors.New("INVALID_QUERY_TYPE")
	ErrInvalidInput                  = errors.New("INVALID_INPUT")
)

type Handler struct {
	config       *Config
	esClient     *elasticsearch.Client
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, esClient *elasticsearch.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		esClient:     esClient,
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
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, fmt.Errorf("%w: parse input: %v", ErrInvalidInput, err), Input{})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err, input)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	queryType := models.QueryType(input.QueryType)
	if _, exists := queries.Registry[queryType]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQueryType, input.QueryType)
	}

	if w := h.config.MaxResultWindow; w > 0 && input.Pagination.From+input.Pagination.Size > w {
		return nil, fmt.Errorf("%w: from+size exceeds result window %d", ErrInvalidInput, w)
	}

	index := h.indexFor(*input)
	params := make(map[string]interface{}, len(input.Filters)+3)
	for k, v := range input.Filters {
		params[k] = v
	}
	if input.Pagination.From > 0 {
		params["from"] = input.Pagination.From
	}
	if input.Pagination.Size > 0 {
		params["size"] = input.Pagination.Size
	}
	if input.Predicates != nil {
		params["predicates"] = *input.Predicates
	}

	result, err := queries.Execute(ctx, h.esClient, index, queryType, params)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrSearchTimedOut), ctx.Err() == context.DeadlineExceeded:
			return nil, ErrSearchTimeout
		case errors.Is(err, queries.ErrIndexNotFound):
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, index)
		case errors.Is(err, queries.ErrMissingParam):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		case errors.Is(err, queries.ErrSearchFailed):
			return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrElasticsearchConnectionFailed, err)
	}

	h.logger.Debug("search executed", map[string]interface{}{
		"queryType": input.QueryType,
		"index":     index,
		"totalHits": result.TotalHits,
		"tookMs":    result.Took,
	})

	return &Output{
		Data:      result.Data,
		TotalHits: result.TotalHits,
		MaxScore:  result.MaxScore,
		Took:      result.Took,
	}, nil
}

func (h *Handler) indexFor(input Input) string {
	if input.IndexName != "" {
		return input.IndexName
	}
	if h.config.Index != "" {
		return h.config.Index
	}
	return DefaultIndex
}

func (h *Handler) toStandardError(err error, input Input) *apperrors.StandardError {
	queryType := input.QueryType
	switch {
	case errors.Is(err, ErrSearchTimeout):
		return apperrors.NewSearchTimeoutError(queryType)
	case errors.Is(err, ErrIndexNotFound):
		return apperrors.NewIndexNotFoundError(h.indexFor(input))
	case errors.Is(err, ErrInvalidQueryType):
		return apperrors.NewInvalidQueryTypeError(queryType)
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, ErrElasticsearchConnectionFailed):
		return apperrors.NewElasticsearchConnectionFailedError(err)
	default:
		return apperrors.NewSearchQueryFailedError(queryType, err)
	}
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error, input Input) {
	stdErr := h.toStandardError(err, input)
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
