// internal/api/handlers.go
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/recommendation"
	"rental-workers/internal/workers/data-access/query-postgresql/queries"
	listbranches "rental-workers/internal/workers/rental/list-branches"
)

const (
	msgPromptEmpty     = "Prompt tidak boleh kosong"
	msgAIUnavailable   = "AI service unavailable"
	msgVehicleNotFound = "Vehicle not found"
)

type recommendRequest struct {
	Prompt *string `json:"prompt"`
}

// catalogQuery binds GET /api/vehicles. Unknown sort keys and out-of-range
// paging are clamped by CatalogParams.Normalize rather than rejected.
type catalogQuery struct {
	Q     string `query:"q" validate:"max=100"`
	City  string `query:"city" validate:"max=100"`
	Min   string `query:"min" validate:"omitempty,numeric"`
	Max   string `query:"max" validate:"omitempty,numeric"`
	Sort  string `query:"sort" validate:"max=32"`
	Order string `query:"order" validate:"max=4"`
	Page  int    `query:"page"`
	Limit int    `query:"limit"`
}

func (s *Server) recommend(c echo.Context) error {
	var req recommendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"message": msgPromptEmpty})
	}
	if req.Prompt == nil || strings.TrimSpace(*req.Prompt) == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"message": msgPromptEmpty})
	}

	resp, err := s.deps.Recommender.Recommend(c.Request().Context(), *req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, recommendation.ErrEmptyPrompt):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{"message": msgPromptEmpty})
		case errors.Is(err, recommendation.ErrUpstreamUnavailable):
			return c.JSON(http.StatusBadGateway, map[string]interface{}{
				"message": msgAIUnavailable,
				"detail":  upstreamDetail(err),
			})
		}
		return recommendation.AsStandardError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) ping(c echo.Context) error {
	if s.deps.Gemini == nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"ok":      false,
			"source":  "server",
			"message": "AI client is not configured",
		})
	}

	text, err := s.deps.Gemini.Ping(c.Request().Context())
	if err != nil {
		source := "server"
		if errors.Is(err, recommendation.ErrUpstreamUnavailable) {
			source = "gemini"
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"ok":      false,
			"source":  source,
			"message": upstreamDetail(err),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":    true,
		"model": s.deps.Gemini.Model(),
		"text":  text,
	})
}

func (s *Server) listVehicles(c echo.Context) error {
	var q catalogQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	page, err := s.deps.Catalog.ListVehicles(c.Request().Context(), queries.CatalogParams{
		Q:     strings.TrimSpace(q.Q),
		City:  strings.TrimSpace(q.City),
		Min:   parseBound(q.Min),
		Max:   parseBound(q.Max),
		Sort:  q.Sort,
		Order: q.Order,
		Page:  q.Page,
		Limit: q.Limit,
	})
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("vehicle_catalog", err)
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) getVehicle(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return c.JSON(http.StatusNotFound, map[string]interface{}{"message": msgVehicleNotFound})
	}

	vehicle, err := s.deps.Catalog.GetVehicle(c.Request().Context(), id)
	if errors.Is(err, queries.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{"message": msgVehicleNotFound})
	}
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("vehicle_detail", err)
	}
	return c.JSON(http.StatusOK, vehicle)
}

func (s *Server) listBranches(c echo.Context) error {
	refresh, _ := strconv.ParseBool(c.QueryParam("refresh"))

	out, err := s.deps.Branches.Execute(c.Request().Context(), &listbranches.Input{Refresh: refresh})
	if err != nil {
		if errors.Is(err, listbranches.ErrBranchQueryTimeout) {
			return apperrors.NewQueryTimeoutError("branch_list")
		}
		return apperrors.NewQueryExecutionFailedError("branch_list", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": out.Branches})
}

func parseBound(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// upstreamDetail strips the sentinel prefix from an upstream error.
func upstreamDetail(err error) string {
	msg := err.Error()
	prefix := recommendation.ErrUpstreamUnavailable.Error() + ": "
	return strings.TrimPrefix(msg, prefix)
}
