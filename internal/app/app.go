// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rental-workers/internal/common/config"
	"rental-workers/internal/common/database"
	"rental-workers/internal/common/gemini"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/observability"
	"rental-workers/internal/recommendation"
	recommendvehicles "rental-workers/internal/workers/rental/recommend-vehicles"
)

// Resources holds the backing stores shared by the worker manager and the
// API server. Elasticsearch and Redis are nil when not configured.
type Resources struct {
	Postgres      *database.PostgresClient
	Elasticsearch *database.ElasticsearchClient
	Redis         *database.RedisClient
}

// RetryWithBackoff runs operation up to maxRetries times, doubling the delay
// after each failure.
func RetryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// NeedsElasticsearch reports whether any enabled component reads the index.
func NeedsElasticsearch(cfg *config.Config) bool {
	if cfg.Recommendation.Backend == recommendvehicles.BackendElasticsearch {
		return true
	}
	return cfg.Database.Elasticsearch.GetURL() != ""
}

// Connect dials Postgres, then Elasticsearch and Redis when configured.
func Connect(ctx context.Context, cfg *config.Config, attempts int, log *zap.Logger) (*Resources, error) {
	res := &Resources{}

	err := RetryWithBackoff(func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		res.Postgres = pg
		return nil
	}, attempts, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected successfully")

	if NeedsElasticsearch(cfg) {
		err = RetryWithBackoff(func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			res.Elasticsearch = es
			return nil
		}, attempts, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			res.Close()
			return nil, err
		}
		log.Info("Elasticsearch connected successfully")
	}

	if cfg.Database.Redis.Address != "" {
		err = RetryWithBackoff(func() error {
			rdb, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rdb.Ping(ctx); err != nil {
				rdb.Close()
				return err
			}
			res.Redis = rdb
			return nil
		}, attempts, 2*time.Second, log, "Redis connection")
		if err != nil {
			res.Close()
			return nil, err
		}
		log.Info("Redis connected successfully")
	} else {
		log.Warn("Redis not configured, branch directory reads go to PostgreSQL")
	}

	return res, nil
}

func (r *Resources) ESClient() *elasticsearch.Client {
	if r == nil || r.Elasticsearch == nil {
		return nil
	}
	return r.Elasticsearch.Client
}

func (r *Resources) RedisClient() *redis.Client {
	if r == nil || r.Redis == nil {
		return nil
	}
	return r.Redis.Client
}

func (r *Resources) Close() {
	if r == nil {
		return
	}
	if r.Redis != nil {
		r.Redis.Close()
	}
	if r.Postgres != nil {
		r.Postgres.Close()
	}
}

// RecommendationOptions maps the recommendation section onto pipeline options.
// TraceOptions turns on OTLP span export when tracing is enabled.
func TraceOptions(cfg config.TracingConfig) []observability.Option {
	if !cfg.Enabled {
		return nil
	}
	return []observability.Option{observability.WithOTLPTraces(cfg.Endpoint, cfg.SampleRatio)}
}

func RecommendationOptions(cfg config.RecommendationConfig) recommendation.Options {
	return recommendation.Options{
		DenyList:         cfg.DenyList,
		LargeGroupSeats:  cfg.LargeGroupSeats,
		RelaxedSeatFloor: cfg.RelaxedSeatFloor,
		ResultLimit:      cfg.ResultLimit,
	}
}

// NewRecommendationService builds the Gemini client and the pipeline over
// the configured backend.
func NewRecommendationService(cfg *config.Config, res *Resources, obs *observability.Observability, log logger.Logger) (*recommendation.Service, *gemini.Client, error) {
	if res.Postgres == nil {
		return nil, nil, fmt.Errorf("postgres is not connected")
	}

	finder, err := recommendvehicles.NewFinder(
		cfg.Recommendation.Backend,
		res.Postgres.DB,
		res.ESClient(),
		cfg.Database.Elasticsearch.VehicleIndex,
	)
	if err != nil {
		return nil, nil, err
	}

	client := gemini.NewClient(gemini.ConfigFrom(cfg.APIs.Gemini), log)
	service := recommendation.NewService(client, finder, RecommendationOptions(cfg.Recommendation), log, obs.Tracer())
	return service, client, nil
}
