package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/techroom/internal/pkg/logger"
	"github.com/yigit/techroom/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server.

SQL backends are migrated on startup and an empty store is seeded with a
default student unless seed.default_student is false.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.NewServer(cmd.Context(), configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if err := srv.Run(cmd.Context()); err != nil {
		return fmt.Errorf("server execution failed: %w", err)
	}

	logger.Info().Msg("Application finished gracefully.")
	return nil
}
