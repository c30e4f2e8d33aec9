// cmd/api-server/reindex.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/spf13/cobra"

	"rental-workers/internal/common/database"
	esqueries "rental-workers/internal/workers/data-access/query-elasticsearch/queries"
	pgqueries "rental-workers/internal/workers/data-access/query-postgresql/queries"
)

func reindexCMD() *cobra.Command {
	var cfgPath string
	var index string

	var reindex = &cobra.Command{
		Use:   "reindex",
		Short: "Copy the vehicle catalog from PostgreSQL into the search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if index == "" {
				index = cfg.Database.Elasticsearch.VehicleIndex
			}

			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()

			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}

			n, err := reindexVehicles(cmd.Context(), pg.DB, es.Client, index, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d vehicles into %s\n", n, index)
			return nil
		},
	}
	reindex.Flags().StringVar(&index, "index", "", "target index (default database.elasticsearch.vehicle_index)")
	reindex.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ./configs/config.yaml)")

	return reindex
}

// reindexVehicles pages through the catalog by id and bulk indexes each page.
func reindexVehicles(ctx context.Context, db *sql.DB, es *elasticsearch.Client, index string, out io.Writer) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := esqueries.EnsureIndex(ctx, es, index); err != nil {
		return 0, err
	}

	total := 0
	for page := 1; ; page++ {
		result, err := pgqueries.ListVehicles(ctx, db, pgqueries.CatalogParams{
			Sort:  "createdAt",
			Order: "ASC",
			Page:  page,
			Limit: pgqueries.MaxCatalogLimit,
		})
		if err != nil {
			return total, fmt.Errorf("read page %d: %w", page, err)
		}
		if len(result.Data) == 0 {
			return total, nil
		}

		n, err := esqueries.IndexVehicles(ctx, es, index, result.Data)
		total += n
		if err != nil {
			return total, fmt.Errorf("index page %d: %w", page, err)
		}
		fmt.Fprintf(out, "page %d/%d: %d vehicles\n", page, result.Meta.TotalPages, n)

		if page >= result.Meta.TotalPages {
			return total, nil
		}
	}
}
