// internal/workers/ai-rental/analyze-prompt/handler.go
package analyzeprompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/metrics"
	"rental-workers/internal/recommendation"
)

const (
	TaskType = "analyze-prompt"
)

var (
	ErrPromptEmpty          = errors.New("PROMPT_EMPTY")
	ErrAIServiceUnavailable = errors.New("AI_SERVICE_UNAVAILABLE")
	ErrInvalidInput         = errors.New("INVALID_INPUT")
)

type Handler struct {
	config       *Config
	analyzer     recommendation.Analyzer
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, analyzer recommendation.Analyzer, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		analyzer:     analyzer,
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
		h.fail(client, job, fmt.Errorf("%w: parse input: %v", ErrInvalidInput, err))
		return
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
	if input == nil || strings.TrimSpace(input.Prompt) == "" {
		return nil, ErrPromptEmpty
	}

	extraction, err := recommendation.Analyze(ctx, h.analyzer, input.Prompt, h.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIServiceUnavailable, err)
	}

	criteria := recommendation.Normalize(extraction, input.Prompt)
	if criteria.InvertedBudget() {
		h.logger.Warn("budget min exceeds max, keeping inverted range", map[string]interface{}{
			"invertedBudget": true,
		})
	}

	reason := extraction.NotesText()
	if reason == "" {
		reason = recommendation.DefaultReason
	}

	return &Output{
		Extraction: extraction,
		Criteria:   criteria,
		Filters:    criteria.View(),
		Predicates: recommendation.BuildPredicates(criteria, h.config.Options),
		Reason:     reason,
		Degraded:   extraction.IsDegraded(),
	}, nil
}

func toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrPromptEmpty):
		return apperrors.NewPromptEmptyError()
	case errors.Is(err, ErrAIServiceUnavailable):
		return apperrors.NewAIServiceUnavailableError(err)
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	default:
		return apperrors.NewInternalError(err)
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
