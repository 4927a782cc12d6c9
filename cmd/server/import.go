package main

import (
	"github.com/spf13/cobra"

	"github.com/jengzang/shelter-map/internal/service"
)

var importCmd = &cobra.Command{
	Use:   "import [dataset.json]",
	Short: "Load a JSON shelter dataset into the SQLite store",
	Long: `Reads a dataset file (defaults to the configured dataset path), skips
records with unusable coordinates, and replaces the stored dataset.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.DatasetPath
		if len(args) == 1 {
			path = args[0]
		}
		_, err := service.NewDatasetService(cfg.DBPath, log).Import(cmd.Context(), path)
		return err
	},
}
