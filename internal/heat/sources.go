package heat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/fileservice"
	"github.com/jengzang/shelter-map/internal/models"
)

// GridSource reads [lat, lon, weight] triples and applies Boosted
type GridSource struct {
	reader   fileservice.Reader
	location string
	logger   *zap.Logger
}

// NewGridSource creates a grid source reading location through reader
func NewGridSource(reader fileservice.Reader, location string, logger *zap.Logger) *GridSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridSource{reader: reader, location: location, logger: logger}
}

// Points fetches the grid and filters it
func (s *GridSource) Points(ctx context.Context) ([]models.HeatPoint, error) {
	var rows []json.RawMessage
	if err := s.reader.ReadJSON(ctx, s.location, &rows); err != nil {
		return nil, err
	}

	raw := make([]models.HeatPoint, 0, len(rows))
	for i, data := range rows {
		var row []float64
		if err := json.Unmarshal(data, &row); err != nil {
			s.logger.Warn("skipping heat row", zap.Int("index", i), zap.Error(err))
			continue
		}
		if len(row) != 3 {
			s.logger.Warn("skipping heat row", zap.Int("index", i), zap.Int("values", len(row)))
			continue
		}
		raw = append(raw, models.HeatPoint{Lat: row[0], Lon: row[1], Weight: row[2]})
	}
	return Boosted(raw), nil
}

// FeatureSource reads a GeoJSON feature collection. Every point feature
// becomes a heat point of FixedWeight.
type FeatureSource struct {
	load func(ctx context.Context) ([]byte, error)
}

// NewFeatureSource reads the collection at location through reader
func NewFeatureSource(reader fileservice.Reader, location string) *FeatureSource {
	return &FeatureSource{load: func(ctx context.Context) ([]byte, error) {
		var raw json.RawMessage
		if err := reader.ReadJSON(ctx, location, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}}
}

// NewStaticFeatureSource serves a collection held in memory
func NewStaticFeatureSource(data []byte) *FeatureSource {
	return &FeatureSource{load: func(context.Context) ([]byte, error) { return data, nil }}
}

// Points parses the collection
func (s *FeatureSource) Points(ctx context.Context) ([]models.HeatPoint, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feature collection: %w", err)
	}
	return FeaturePoints(fc), nil
}

// FeaturePoints converts point features, ignoring other geometries
func FeaturePoints(fc *geojson.FeatureCollection) []models.HeatPoint {
	points := make([]models.HeatPoint, 0, len(fc.Features))
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Point:
			points = append(points, models.HeatPoint{Lat: g.Lat(), Lon: g.Lon(), Weight: FixedWeight})
		case orb.MultiPoint:
			for _, p := range g {
				points = append(points, models.HeatPoint{Lat: p.Lat(), Lon: p.Lon(), Weight: FixedWeight})
			}
		}
	}
	return points
}
