package main

import (
	"github.com/spf13/cobra"

	"github.com/yigit/techroom/internal/bootstrap"
	"github.com/yigit/techroom/internal/seed"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default student on an empty store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
		if err != nil {
			return err
		}
		if err := bootstrap.RunMigrations(cfg, lgr); err != nil {
			return err
		}

		store, err := bootstrap.OpenStore(cmd.Context(), cfg, lgr)
		if err != nil {
			return err
		}
		defer store.Close()

		created, err := seed.CreateDefaultData(cmd.Context(), store, lgr)
		if err != nil {
			return err
		}
		if created {
			cmd.Println("Default student created")
		} else {
			cmd.Println("Store already seeded")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
