// internal/api/server.go
package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/metrics"
	"rental-workers/internal/models"
	"rental-workers/internal/recommendation"
	"rental-workers/internal/workers/data-access/query-postgresql/queries"
	listbranches "rental-workers/internal/workers/rental/list-branches"
)

// Recommender is satisfied by *recommendation.Service.
type Recommender interface {
	Recommend(ctx context.Context, prompt string) (*recommendation.Response, error)
}

// Pinger is satisfied by *gemini.Client.
type Pinger interface {
	Ping(ctx context.Context) (string, error)
	Model() string
}

// Catalog reads the public vehicle catalog.
type Catalog interface {
	ListVehicles(ctx context.Context, p queries.CatalogParams) (*queries.CatalogPage, error)
	GetVehicle(ctx context.Context, id int64) (*models.Vehicle, error)
}

// BranchDirectory is satisfied by the list-branches handler.
type BranchDirectory interface {
	Execute(ctx context.Context, input *listbranches.Input) (*listbranches.Output, error)
}

type Deps struct {
	Recommender  Recommender
	Gemini       Pinger
	Catalog      Catalog
	Branches     BranchDirectory
	AllowOrigins []string
	Timeout      time.Duration
}

type Server struct {
	echo   *echo.Echo
	deps   Deps
	logger logger.Logger
}

// PostgresCatalog adapts the catalog queries to a *sql.DB.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (c *PostgresCatalog) ListVehicles(ctx context.Context, p queries.CatalogParams) (*queries.CatalogPage, error) {
	return queries.ListVehicles(ctx, c.db, p)
}

func (c *PostgresCatalog) GetVehicle(ctx context.Context, id int64) (*models.Vehicle, error) {
	return queries.GetVehicle(ctx, c.db, id)
}

func NewServer(deps Deps, log logger.Logger) *Server {
	if len(deps.AllowOrigins) == 0 {
		deps.AllowOrigins = []string{"*"}
	}

	s := &Server{
		echo:   echo.New(),
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "http"}),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: deps.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(s.requestLogger())
	if deps.Timeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: deps.Timeout,
		}))
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/ai/recommend", s.recommend)
	api.GET("/ai/ping", s.ping)
	api.GET("/vehicles", s.listVehicles)
	api.GET("/vehicles/:id", s.getVehicle)
	api.GET("/branches", s.listBranches)

	return s
}

// Handler exposes the router for httptest and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks until the listener stops. http.ErrServerClosed is not an error.
func (s *Server) Start(addr string) error {
	s.logger.Info("HTTP API listening", map[string]interface{}{"address": addr})
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			metrics.HTTPRequestDuration.
				WithLabelValues(v.Method, v.RoutePath, strconv.Itoa(v.Status)).
				Observe(v.Latency.Seconds())

			fields := map[string]interface{}{
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latencyMs": v.Latency.Milliseconds(),
				"requestId": v.RequestID,
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				if v.Error != nil {
					fields["error"] = v.Error.Error()
				}
				s.logger.Error("request failed", fields)
			case v.Status >= http.StatusBadRequest:
				s.logger.Warn("request rejected", fields)
			default:
				s.logger.Info("request served", fields)
			}
			return nil
		},
	})
}

// handleError renders every error as JSON. StandardErrors keep their code
// and map to a status through apperrors.HTTPStatus.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		body   map[string]interface{}
		he     *echo.HTTPError
		stdErr *apperrors.StandardError
	)
	switch {
	case errors.As(err, &he):
		status = he.Code
		body = map[string]interface{}{"message": fmt.Sprint(he.Message)}
	case errors.As(err, &stdErr):
		status = apperrors.HTTPStatus(stdErr.Code)
		body = map[string]interface{}{"message": stdErr.Message, "code": stdErr.Code}
	default:
		status = http.StatusInternalServerError
		body = map[string]interface{}{"message": "Internal server error"}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	if err := c.JSON(status, body); err != nil {
		s.logger.Error("failed to write error response", map[string]interface{}{"error": err.Error()})
	}
}
