package models

import (
	"encoding/json"
	"fmt"
)

// HeatPoint is a weighted sample of the heat overlay.
// It travels as a [lat, lon, weight] triple, the format heat renderers consume.
type HeatPoint struct {
	Lat    float64
	Lon    float64
	Weight float64
}

// MarshalJSON encodes the point as a triple
func (p HeatPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{p.Lat, p.Lon, p.Weight})
}

// UnmarshalJSON decodes a [lat, lon, weight] triple
func (p *HeatPoint) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("heat point: expected 3 values, got %d", len(raw))
	}
	p.Lat, p.Lon, p.Weight = raw[0], raw[1], raw[2]
	return nil
}

// TileStatus reports whether the base tile layer made it onto the map
type TileStatus struct {
	Rendered bool   `json:"rendered"`
	Error    string `json:"error,omitempty"`
}

// HeatStatus reports whether the heat overlay made it onto the map
type HeatStatus struct {
	Rendered    bool   `json:"rendered"`
	Points      int    `json:"points"`
	Unavailable bool   `json:"unavailable"`
	Error       string `json:"error,omitempty"`
}
