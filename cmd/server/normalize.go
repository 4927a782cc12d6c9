package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/heat"
	"github.com/jengzang/shelter-map/internal/models"
)

var (
	maxIntensity float64
	outputPath   string
)

var normalizeCmd = &cobra.Command{
	Use:   "heat-normalize <raw.json>",
	Short: "Rescale raw [lat, lon, value] triples into 0..1 intensities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		var raw []models.HeatPoint
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		points, err := heat.Normalize(raw, maxIntensity)
		if err != nil {
			return err
		}

		out, err := json.Marshal(points)
		if err != nil {
			return err
		}
		if outputPath == "" {
			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			return err
		}
		if err := os.WriteFile(outputPath, out, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputPath, err)
		}
		log.Info("heat grid normalized", zap.Int("points", len(points)), zap.String("output", outputPath))
		return nil
	},
}

func init() {
	normalizeCmd.Flags().Float64Var(&maxIntensity, "max", 0, "intensity that maps to 1.0")
	normalizeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	normalizeCmd.MarkFlagRequired("max")
}
