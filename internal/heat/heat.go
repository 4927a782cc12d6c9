// Package heat builds the weighted point list behind the heat overlay.
package heat

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/mapsurface"
	"github.com/jengzang/shelter-map/internal/models"
)

const (
	// Threshold is the raw grid weight at or below which points are dropped
	Threshold = 0.32
	// Boost multiplies the weight of surviving grid points
	Boost = 2.0
	// Radius is the heat renderer's point radius
	Radius = 15
	// FixedWeight is assigned to every point of a feature collection
	FixedWeight = 1.0
)

// Source produces heat points
type Source interface {
	Points(ctx context.Context) ([]models.HeatPoint, error)
}

// Loader renders a Source onto a map surface
type Loader struct {
	source Source
	logger *zap.Logger
}

// NewLoader creates a loader
func NewLoader(source Source, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{source: source, logger: logger}
}

// Render loads the points and adds one heat layer to the surface.
// It is not idempotent: every call adds another layer.
func (l *Loader) Render(ctx context.Context, surface mapsurface.Surface) (int, error) {
	points, err := l.source.Points(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load heat points: %w", err)
	}
	if err := surface.AddHeatLayer(points, Radius); err != nil {
		return 0, fmt.Errorf("failed to render heat layer: %w", err)
	}
	l.logger.Info("heat layer rendered", zap.Int("points", len(points)), zap.Int("radius", Radius))
	return len(points), nil
}

// Boosted applies the grid policy: drop weak samples, amplify the rest
func Boosted(raw []models.HeatPoint) []models.HeatPoint {
	out := make([]models.HeatPoint, 0, len(raw))
	for _, p := range raw {
		if p.Weight <= Threshold {
			continue
		}
		p.Weight *= Boost
		out = append(out, p)
	}
	return out
}

// Normalize rescales raster intensities against maxIntensity, rounded to two decimals
func Normalize(raw []models.HeatPoint, maxIntensity float64) ([]models.HeatPoint, error) {
	if maxIntensity <= 0 || math.IsNaN(maxIntensity) || math.IsInf(maxIntensity, 0) {
		return nil, fmt.Errorf("normalize: max intensity must be positive, got %v", maxIntensity)
	}
	out := make([]models.HeatPoint, len(raw))
	for i, p := range raw {
		p.Weight = math.Round(p.Weight/maxIntensity*100) / 100
		out[i] = p
	}
	return out, nil
}
