// Package mapsurface describes the host map the browser renders and provides
// an in-memory scene that records what the map should currently show.
package mapsurface

import (
	"errors"

	"github.com/jengzang/shelter-map/internal/models"
)

// ErrNoMarker is returned when a handle does not refer to a marker on the surface
var ErrNoMarker = errors.New("marker not found")

// MarkerHandle identifies a rendered marker
type MarkerHandle string

// TileLayer configures the base map
type TileLayer struct {
	URLTemplate string `json:"urlTemplate" yaml:"url_template"`
	MaxZoom     int    `json:"maxZoom" yaml:"max_zoom"`
	Attribution string `json:"attribution" yaml:"attribution"`
}

// MarkerSpec describes a marker to place on the surface
type MarkerSpec struct {
	Lat     float64
	Lon     float64
	Icon    string
	Tooltip string
	OnClick func() // Optional
}

// Surface is the map the controller draws on. Implementations own projection
// and drawing; callers only describe layers and markers.
type Surface interface {
	AddTileLayer(layer TileLayer) error
	AddHeatLayer(points []models.HeatPoint, radius int) error
	AddMarker(spec MarkerSpec) (MarkerHandle, error)
	RemoveMarker(h MarkerHandle) error
	// Refresh asks the client to redraw UI state outside the map layers
	Refresh()
}
