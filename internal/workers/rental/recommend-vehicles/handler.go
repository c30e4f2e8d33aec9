// internal/workers/rental/recommend-vehicles/handler.go
package recommendvehicles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/metrics"
	"rental-workers/internal/common/validation"
	"rental-workers/internal/recommendation"
	esqueries "rental-workers/internal/workers/data-access/query-elasticsearch/queries"
	pgqueries "rental-workers/internal/workers/data-access/query-postgresql/queries"
)

const (
	TaskType = "recommend-vehicles"
)

var (
	ErrInvalidInput   = errors.New("INVALID_INPUT")
	ErrUnknownBackend = errors.New("UNKNOWN_BACKEND")
)

var schema = validation.MustCompile(inputSchema)

type Handler struct {
	config       *Config
	service      *recommendation.Service
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, service *recommendation.Service, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		logger:       scoped,
		errorHandler: apperrors.NewErrorHandler(scoped),
	}
}

// NewFinder returns the vehicle finder for backend. An empty backend means
// postgres.
func NewFinder(backend string, db *sql.DB, es *elasticsearch.Client, index string) (recommendation.VehicleFinder, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("%w: postgres backend needs a database", ErrUnknownBackend)
		}
		return pgqueries.NewPostgresFinder(db), nil
	case BackendElasticsearch:
		if es == nil {
			return nil, fmt.Errorf("%w: elasticsearch backend needs a client", ErrUnknownBackend)
		}
		return esqueries.NewElasticsearchFinder(es, index), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, fmt.Errorf("%w: parse variables: %v", ErrInvalidInput, err)
	}

	result, err := schema.Validate(variables)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(result.GetErrorMessages(), "; "))
	}

	input := &Input{}
	if prompt, ok := variables["prompt"].(string); ok {
		input.Prompt = prompt
	}
	return input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	return h.service.Recommend(ctx, input.Prompt)
}

func toStandardError(err error) *apperrors.StandardError {
	if errors.Is(err, ErrInvalidInput) {
		return apperrors.NewInvalidInputError(err.Error())
	}
	return recommendation.AsStandardError(err)
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
