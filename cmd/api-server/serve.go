// cmd/api-server/serve.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rental-workers/internal/api"
	"rental-workers/internal/app"
	"rental-workers/internal/common/config"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/observability"
	listbranches "rental-workers/internal/workers/rental/list-branches"
)

func serveCMD() *cobra.Command {
	var serveAddr string
	var cfgPath string

	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if serveAddr == "" {
				serveAddr = cfg.HTTP.Address
			}
			return runServer(cmd.Context(), cfg, serveAddr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default http.address)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ./configs/config.yaml)")

	return serve
}

func runServer(ctx context.Context, cfg *config.Config, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs, err := observability.New("api-server", app.TraceOptions(cfg.Tracing)...)
	if err != nil {
		zapLog.Warn("observability setup incomplete", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	res, err := app.Connect(ctx, cfg, 10, zapLog)
	if err != nil {
		return err
	}
	defer res.Close()

	service, geminiClient, err := app.NewRecommendationService(cfg, res, obs, log)
	if err != nil {
		return err
	}

	branches := listbranches.NewHandler(&listbranches.Config{
		Timeout:  10 * time.Second,
		CacheTTL: time.Duration(cfg.Database.Redis.CacheTTL) * time.Second,
	}, res.Postgres.DB, res.RedisClient(), log)

	server := api.NewServer(api.Deps{
		Recommender:  service,
		Gemini:       geminiClient,
		Catalog:      api.NewPostgresCatalog(res.Postgres.DB),
		Branches:     branches,
		AllowOrigins: cfg.HTTP.AllowOrigins,
		Timeout:      config.GetDuration(cfg.HTTP.Timeout),
	}, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(addr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	zapLog.Info("Shutdown signal received, stopping HTTP API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
