// cmd/api-server/main.go
package main

import (
	"os"

	"github.com/spf13/cobra"

	"rental-workers/internal/common/config"
)

func main() {
	var root = &cobra.Command{
		Use:          "api-server",
		Short:        "Vehicle rental HTTP API and maintenance commands",
		SilenceUsage: true,
	}

	root.AddCommand(serveCMD(), migrateCMD(), reindexCMD(), registryCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads path when given, otherwise the default search paths.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
