// Package dataset loads the shelter dataset: a JSON object whose keys are
// category names and whose values are arrays of named coordinates.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/models"
	"github.com/jengzang/shelter-map/internal/spatial"
)

type rawRecord struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
}

// LoadFile reads a dataset from disk
func LoadFile(path string, logger *zap.Logger) (*models.Dataset, models.LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.LoadReport{}, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return Decode(f, logger)
}

// Decode parses a dataset, keeping categories in document order.
// Records with unusable coordinates and categories whose value is not an
// array are skipped and reported, never fatal.
func Decode(r io.Reader, logger *zap.Logger) (*models.Dataset, models.LoadReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var report models.LoadReport

	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, report, err
	}

	// A repeated key keeps its first position and its last value
	var (
		order  []models.Category
		values = make(map[models.Category]json.RawMessage)
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, report, fmt.Errorf("failed to read category: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, report, fmt.Errorf("unexpected token %v", tok)
		}
		category := models.Category(key)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, report, fmt.Errorf("category %q: %w", key, err)
		}
		if _, seen := values[category]; seen {
			logger.Warn("duplicate category, keeping the last value", zap.String("category", key))
		} else {
			order = append(order, category)
		}
		values[category] = value
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, report, err
	}

	ds := models.NewDataset()
	for _, category := range order {
		var items []json.RawMessage
		if err := json.Unmarshal(values[category], &items); err != nil {
			report.Warn(models.LoadWarning{Category: category, Index: -1, Reason: "expected an array of records"})
			logger.Warn("skipping shelter category", zap.String("category", string(category)), zap.Error(err))
			continue
		}

		ds.AddCategory(category)
		for i, item := range items {
			rec, err := parseRecord(category, item)
			if err != nil {
				w := models.LoadWarning{Category: category, Index: i, Name: rec.Name, Reason: err.Error()}
				report.Warn(w)
				logger.Warn("skipping shelter record",
					zap.String("category", string(category)),
					zap.Int("index", i),
					zap.String("name", rec.Name),
					zap.Error(err))
				continue
			}
			ds.Add(rec)
			report.Loaded++
		}
	}

	logger.Info("dataset loaded",
		zap.Int("categories", len(ds.Categories)),
		zap.Int("records", report.Loaded),
		zap.Int("skipped", report.Skipped))
	return ds, report, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read dataset: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("malformed dataset: expected %q, got %v", want, tok)
	}
	return nil
}

func parseRecord(category models.Category, item json.RawMessage) (models.ShelterRecord, error) {
	rec := models.ShelterRecord{Category: category}

	var raw rawRecord
	if err := json.Unmarshal(item, &raw); err != nil {
		return rec, fmt.Errorf("malformed record: %w", err)
	}
	rec.ID = raw.ID
	rec.Name = raw.Name

	lat, err := parseCoordinate(raw.Latitude)
	if err != nil {
		return rec, fmt.Errorf("latitude: %w", err)
	}
	lon, err := parseCoordinate(raw.Longitude)
	if err != nil {
		return rec, fmt.Errorf("longitude: %w", err)
	}
	if err := spatial.ValidateLatLng(lat, lon); err != nil {
		return rec, err
	}
	rec.Latitude = lat
	rec.Longitude = lon
	return rec, nil
}

// parseCoordinate accepts either a JSON number or a numeric string
func parseCoordinate(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return spatial.ParseDegrees(s)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("invalid coordinate %s", raw)
	}
	return v, nil
}

// Bounds returns the box around every record in the dataset
func Bounds(ds *models.Dataset) (spatial.Bounds, bool) {
	var points []spatial.Point
	for _, c := range ds.Categories {
		for _, rec := range ds.Records[c] {
			points = append(points, spatial.Point{Lat: rec.Latitude, Lon: rec.Longitude})
		}
	}
	return spatial.BoundingBox(points)
}
