// cmd/api-server/migrate.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rental-workers/internal/common/config"
	"rental-workers/internal/common/database"
)

func migrateCMD() *cobra.Command {
	var migDir string
	var direction string
	var steps int
	var cfgPath string

	var migrate = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if direction != "up" && direction != "down" {
				return fmt.Errorf("direction must be up or down, got %q", direction)
			}
			if err := database.Migrate(migDir, cfg.Database.Postgres.GetURL(), direction, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations %s complete\n", direction)
			if direction == "up" {
				reportCatalog(cmd, cfg.Database.Postgres)
			}
			return nil
		},
	}
	migrate.Flags().StringVar(&migDir, "dir", database.DefaultMigrationsDir, "migrations source (file://migrations)")
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	migrate.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ./configs/config.yaml)")

	return migrate
}

func reportCatalog(cmd *cobra.Command, pgCfg config.PostgresConfig) {
	pg, err := database.NewPostgres(pgCfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "catalog check skipped: %v\n", err)
		return
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	branches, vehicles, err := pg.CatalogStats(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "catalog check skipped: %v\n", err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "catalog: %d branches, %d vehicles\n", branches, vehicles)
}
