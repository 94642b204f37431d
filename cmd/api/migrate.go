package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yigit/techroom/internal/app/migrations"
	"github.com/yigit/techroom/internal/bootstrap"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Manage the database schema of the configured SQL backend.

Example:
  techroom migrate up
  techroom migrate down 1
  techroom migrate version`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		migrator, err := loadMigrator()
		if err != nil {
			return err
		}
		if err := migrator.Up(); err != nil {
			return err
		}
		return printVersion(cmd, migrator)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default: 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			steps = n
		}

		migrator, err := loadMigrator()
		if err != nil {
			return err
		}
		if err := migrator.Down(steps); err != nil {
			return err
		}
		return printVersion(cmd, migrator)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		migrator, err := loadMigrator()
		if err != nil {
			return err
		}
		return printVersion(cmd, migrator)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func loadMigrator() (*migrations.Migrator, error) {
	cfg, _, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, err
	}
	return migrations.ForConfig(cfg)
}

func printVersion(cmd *cobra.Command, migrator *migrations.Migrator) error {
	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	cmd.Printf("Schema version: %d (dirty: %v)\n", version, dirty)
	return nil
}
