package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yigit/techroom/internal/pkg/logger"
)

// @title TechRoom API
// @version 1.0
// @description Student records API for the TechRoom campus dashboard

// @contact.name API Support
// @contact.email support@techroom.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http https

var configPath string

// rootCmd runs the API server when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   "techroom",
	Short: "TechRoom student records service",
	Long: `TechRoom student records service.

Configuration is read from the YAML file given by --config and can be
overridden with environment variables (DB_BACKEND, DB_HOST, SERVER_PORT, ...).`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the YAML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
