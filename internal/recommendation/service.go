// internal/recommendation/service.go
package recommendation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/metrics"
	"rental-workers/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyPrompt         = errors.New("PROMPT_EMPTY")
	ErrUpstreamUnavailable = errors.New("AI_SERVICE_UNAVAILABLE")
)

// Analyzer extracts rental criteria from a prompt. It returns an error
// wrapping ErrUpstreamUnavailable when the language service cannot be reached.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (*ExtractionResult, error)
}

type Meta struct {
	Total   int  `json:"total"`
	Relaxed bool `json:"relaxed"`
}

type Response struct {
	Reason  string           `json:"reason"`
	Filters FiltersView      `json:"filters"`
	Results []models.Vehicle `json:"results"`
	Meta    Meta             `json:"meta"`
}

type Service struct {
	analyzer Analyzer
	finder   VehicleFinder
	opts     Options
	logger   logger.Logger
	tracer   trace.Tracer
}

// NewService wires the pipeline. A nil tracer uses the global provider.
func NewService(analyzer Analyzer, finder VehicleFinder, opts Options, log logger.Logger, tracer trace.Tracer) *Service {
	if tracer == nil {
		tracer = otel.Tracer("rental-workers/recommendation")
	}
	return &Service{
		analyzer: analyzer,
		finder:   finder,
		opts:     opts.withDefaults(),
		logger:   log.WithFields(map[string]interface{}{"component": "recommendation"}),
		tracer:   tracer,
	}
}

// Recommend runs prompt -> extraction -> criteria -> strict query, relaxing
// once when the strict query is empty and a seat floor was requested.
func (s *Service) Recommend(ctx context.Context, prompt string) (*Response, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation.recommend")
	defer span.End()

	if strings.TrimSpace(prompt) == "" {
		metrics.RecommendationRequests.WithLabelValues("empty_prompt").Inc()
		span.SetStatus(codes.Error, ErrEmptyPrompt.Error())
		return nil, ErrEmptyPrompt
	}

	extraction, err := Analyze(ctx, s.analyzer, prompt, s.logger)
	if err != nil {
		metrics.RecommendationRequests.WithLabelValues("upstream_unavailable").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "analyzer unavailable")
		return nil, err
	}

	criteria := Normalize(extraction, prompt)
	if criteria.InvertedBudget() {
		s.logger.Warn("budget min exceeds max, keeping inverted range", map[string]interface{}{
			"invertedBudget": true,
			"minPrice":       *criteria.MinPrice,
			"maxPrice":       *criteria.MaxPrice,
		})
	}

	strict := BuildPredicates(criteria, s.opts)
	span.SetAttributes(
		attribute.Bool("recommendation.degraded", extraction.IsDegraded()),
		attribute.Bool("recommendation.denylist", strict.HasDenyList()),
	)

	vehicles, stage, err := runStages(ctx, s.finder, strict, s.opts, s.traceStage)
	if err != nil {
		metrics.RecommendationRequests.WithLabelValues("query_failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "vehicle query failed")
		return nil, err
	}

	relaxed := stage == StageRelaxed
	outcome := "ok"
	if relaxed {
		outcome = "relaxed"
		metrics.RecommendationRelaxations.Inc()
	}
	metrics.RecommendationRequests.WithLabelValues(outcome).Inc()
	metrics.RecommendationResults.Observe(float64(len(vehicles)))

	reason := extraction.NotesText()
	if reason == "" {
		reason = DefaultReason
	}

	s.logger.Info("recommendation built", map[string]interface{}{
		"total":    len(vehicles),
		"relaxed":  relaxed,
		"degraded": extraction.IsDegraded(),
	})

	return &Response{
		Reason:  reason,
		Filters: criteria.View(),
		Results: vehicles,
		Meta:    Meta{Total: len(vehicles), Relaxed: relaxed},
	}, nil
}

// Analyze runs analyzer on prompt. Upstream unavailability, including an
// expired ctx, is returned wrapping ErrUpstreamUnavailable. Every other
// analyzer problem becomes a degraded extraction.
func Analyze(ctx context.Context, analyzer Analyzer, prompt string, log logger.Logger) (*ExtractionResult, error) {
	result, err := analyzer.Analyze(ctx, prompt)
	switch {
	case err != nil && errors.Is(err, ErrUpstreamUnavailable):
		return nil, err
	case err != nil && ctx.Err() != nil:
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	case err != nil:
		log.Warn("analysis degraded", map[string]interface{}{"error": err.Error()})
		return DegradedExtraction(err.Error()), nil
	case result == nil:
		return DegradedExtraction("empty analysis result"), nil
	default:
		return result, nil
	}
}

func (s *Service) traceStage(ctx context.Context, stage Stage, p Predicates) (context.Context, func(int, error)) {
	ctx, span := s.tracer.Start(ctx, "recommendation.query", trace.WithAttributes(
		attribute.String("recommendation.stage", string(stage)),
		attribute.Bool("recommendation.denylist", p.HasDenyList()),
	))
	if p.MinSeats != nil {
		span.SetAttributes(attribute.Int("recommendation.min_seats", *p.MinSeats))
	}

	return ctx, func(rows int, err error) {
		span.SetAttributes(attribute.Int("recommendation.rows", rows))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "query failed")
		}
		s.logger.Debug("vehicle query finished", map[string]interface{}{
			"stage": string(stage),
			"rows":  rows,
		})
		span.End()
	}
}

// AsStandardError maps pipeline errors onto the shared error codes used by
// the job error handler and the HTTP layer.
func AsStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrEmptyPrompt):
		return apperrors.NewPromptEmptyError()
	case errors.Is(err, ErrUpstreamUnavailable):
		return apperrors.NewAIServiceUnavailableError(err)
	default:
		return apperrors.AsStandardError(err)
	}
}
