package mapsurface

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jengzang/shelter-map/internal/models"
)

// HeatLayer is a rendered heat overlay
type HeatLayer struct {
	Radius int                `json:"radius"`
	Points []models.HeatPoint `json:"points"`
}

// Marker is the serialisable view of a rendered marker
type Marker struct {
	Handle    MarkerHandle `json:"handle"`
	Lat       float64      `json:"lat"`
	Lon       float64      `json:"lon"`
	Icon      string       `json:"icon"`
	Tooltip   string       `json:"tooltip"`
	Clickable bool         `json:"clickable"`
}

// Snapshot is everything a client needs to draw the scene
type Snapshot struct {
	Revision   uint64      `json:"revision"`
	TileLayers []TileLayer `json:"tileLayers"`
	HeatLayers []HeatLayer `json:"heatLayers"`
	Markers    []Marker    `json:"markers"`
}

type sceneMarker struct {
	Marker
	onClick func()
}

// Scene is an in-memory Surface. Markers keep insertion order.
type Scene struct {
	mu       sync.RWMutex
	revision uint64
	tiles    []TileLayer
	heat     []HeatLayer
	order    []MarkerHandle
	markers  map[MarkerHandle]*sceneMarker
}

// NewScene creates an empty scene
func NewScene() *Scene {
	return &Scene{markers: make(map[MarkerHandle]*sceneMarker)}
}

// AddTileLayer adds a base map layer
func (s *Scene) AddTileLayer(layer TileLayer) error {
	if layer.URLTemplate == "" {
		return fmt.Errorf("tile layer: empty url template")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles = append(s.tiles, layer)
	s.revision++
	return nil
}

// AddHeatLayer adds a heat overlay. Each call adds a new layer.
func (s *Scene) AddHeatLayer(points []models.HeatPoint, radius int) error {
	if radius <= 0 {
		return fmt.Errorf("heat layer: radius must be positive, got %d", radius)
	}
	cp := make([]models.HeatPoint, len(points))
	copy(cp, points)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.heat = append(s.heat, HeatLayer{Radius: radius, Points: cp})
	s.revision++
	return nil
}

// AddMarker places a marker and returns its handle
func (s *Scene) AddMarker(spec MarkerSpec) (MarkerHandle, error) {
	h := MarkerHandle(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[h] = &sceneMarker{
		Marker: Marker{
			Handle:    h,
			Lat:       spec.Lat,
			Lon:       spec.Lon,
			Icon:      spec.Icon,
			Tooltip:   spec.Tooltip,
			Clickable: spec.OnClick != nil,
		},
		onClick: spec.OnClick,
	}
	s.order = append(s.order, h)
	s.revision++
	return h, nil
}

// RemoveMarker takes a marker off the scene
func (s *Scene) RemoveMarker(h MarkerHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markers[h]; !ok {
		return fmt.Errorf("%w: %s", ErrNoMarker, h)
	}
	delete(s.markers, h)
	for i, x := range s.order {
		if x == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.revision++
	return nil
}

// Refresh bumps the revision so polling clients redraw
func (s *Scene) Refresh() {
	s.mu.Lock()
	s.revision++
	s.mu.Unlock()
}

// Click dispatches a client click to the marker's handler.
// The handler runs without the scene lock held so it may mutate the scene.
func (s *Scene) Click(h MarkerHandle) error {
	s.mu.RLock()
	m, ok := s.markers[h]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoMarker, h)
	}
	if m.onClick != nil {
		m.onClick()
	}
	return nil
}

// HasMarker reports whether the handle is currently on the scene
func (s *Scene) HasMarker(h MarkerHandle) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.markers[h]
	return ok
}

// MarkerCount returns the number of markers on the scene
func (s *Scene) MarkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}

// Snapshot returns a copy of the current scene
func (s *Scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Revision:   s.revision,
		TileLayers: append([]TileLayer(nil), s.tiles...),
		HeatLayers: make([]HeatLayer, len(s.heat)),
		Markers:    make([]Marker, 0, len(s.order)),
	}
	copy(snap.HeatLayers, s.heat)
	for _, h := range s.order {
		snap.Markers = append(snap.Markers, s.markers[h].Marker)
	}
	return snap
}
