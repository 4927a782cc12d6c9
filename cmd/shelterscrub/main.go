package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/dataset"
	"github.com/jengzang/shelter-map/internal/logger"
	"github.com/jengzang/shelter-map/internal/scrub"
)

var (
	bbox      string
	amenities []string
	output    string
	logLevel  string

	// newClient is replaced in tests
	newClient = scrub.NewClient
)

var rootCmd = &cobra.Command{
	Use:   "shelterscrub",
	Short: "Build a shelter dataset from OpenStreetMap amenities",
	Long: `Queries the Overpass API for every amenity kind inside a bounding box
and writes a dataset with one category per kind. Only named elements are kept.

Example:
  shelterscrub --bbox 31.2,34.2,31.6,34.6 --amenity shelter --amenity clinic -o shelters.json`,
	SilenceUsage: true,
	RunE:         runScrub,
}

func init() {
	rootCmd.Flags().StringVar(&bbox, "bbox", "", "bounding box as minLat,minLon,maxLat,maxLon")
	rootCmd.Flags().StringSliceVarP(&amenities, "amenity", "a", []string{"shelter"}, "amenity kinds to collect, in output order")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.MarkFlagRequired("bbox")
}

func runScrub(cmd *cobra.Command, args []string) error {
	log, err := logger.New(logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	box, err := scrub.ParseBoundingBox(bbox)
	if err != nil {
		return err
	}

	ds, err := scrub.NewScraper(newClient(), log).Scrape(box, amenities)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}
	if err := dataset.Encode(w, ds); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	log.Info("dataset written", zap.Int("categories", len(ds.Categories)), zap.Int("records", ds.Count()))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
