package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/config"
	"github.com/jengzang/shelter-map/internal/logger"
)

var (
	configPath string
	log        *zap.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "shelter-map",
	Short: "Shelter map server and dataset tools",
	Long: `shelter-map serves a tile map with a heat overlay and toggleable
shelter markers to browser clients, and manages the shelter dataset.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		log, err = logger.New(cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, importCmd, normalizeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
