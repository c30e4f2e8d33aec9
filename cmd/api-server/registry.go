// cmd/api-server/registry.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rental-workers/pkg/registry"

	ap "rental-workers/internal/workers/ai-rental/analyze-prompt"
	qe "rental-workers/internal/workers/data-access/query-elasticsearch"
	qp "rental-workers/internal/workers/data-access/query-postgresql"
	sr "rental-workers/internal/workers/notification/send-recommendation"
	lb "rental-workers/internal/workers/rental/list-branches"
	rv "rental-workers/internal/workers/rental/recommend-vehicles"
)

// workerTaskTypes lists every job type the worker manager can register.
var workerTaskTypes = []string{ap.TaskType, rv.TaskType, qp.TaskType, qe.TaskType, lb.TaskType, sr.TaskType}

func registryCMD() *cobra.Command {
	var reg = &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry",
	}

	var path string
	var validate = &cobra.Command{
		Use:   "validate",
		Short: "Validate the activity registry against the implemented workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := registry.Validate(r, workerTaskTypes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(r.Activities))
			return nil
		},
	}
	validate.Flags().StringVar(&path, "path", "configs/activity-registry.json", "Path to registry file")

	reg.AddCommand(validate)
	return reg
}
