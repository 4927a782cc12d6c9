// Package controller drives one map: it reacts to map-ready, checkbox changes
// and marker clicks, and owns the comparison view.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/dataset"
	"github.com/jengzang/shelter-map/internal/heat"
	"github.com/jengzang/shelter-map/internal/mapsurface"
	"github.com/jengzang/shelter-map/internal/models"
	"github.com/jengzang/shelter-map/internal/registry"
	"github.com/jengzang/shelter-map/internal/spatial"
)

// ErrAlreadyReady is returned when map-ready is signalled twice
var ErrAlreadyReady = errors.New("map already initialised")

// Comparison is the state of the comparison panel
type Comparison struct {
	Visible  bool                  `json:"visible"`
	Selected *models.ShelterRecord `json:"selected,omitempty"`
	Nearest  []Neighbour           `json:"nearest,omitempty"`
}

// Neighbour is the closest shelter of another category
type Neighbour struct {
	Shelter        models.ShelterRecord `json:"shelter"`
	DistanceMeters float64              `json:"distanceMeters"`
}

// State is a read-only view of the controller
type State struct {
	Ready      bool                     `json:"ready"`
	Center     spatial.Point            `json:"center"`
	Tiles      models.TileStatus        `json:"tiles"`
	Heat       models.HeatStatus        `json:"heat"`
	Categories []models.CategorySummary `json:"categories"`
	Comparison Comparison               `json:"comparison"`
}

// Config holds the fixed map settings
type Config struct {
	Tiles    mapsurface.TileLayer
	IconBase string
	Center   spatial.Point // Fallback when the dataset is empty
}

// Controller serialises all events for one map surface
type Controller struct {
	mu       sync.Mutex
	surface  mapsurface.Surface
	dataset  *models.Dataset
	registry *registry.Registry
	loader   *heat.Loader
	cfg      Config
	logger   *zap.Logger

	ready      bool
	center     spatial.Point
	tiles      models.TileStatus
	heat       models.HeatStatus
	comparison Comparison
}

// New builds a controller and its marker registry around surface
func New(surface mapsurface.Surface, dataset *models.Dataset, loader *heat.Loader, cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		surface: surface,
		dataset: dataset,
		loader:  loader,
		cfg:     cfg,
		logger:  logger,
		center:  cfg.Center,
	}

	opts := []registry.Option{
		registry.WithLogger(logger),
		registry.WithClickHandler(c.markerClicked),
	}
	if cfg.IconBase != "" {
		opts = append(opts, registry.WithIconBase(cfg.IconBase))
	}
	c.registry = registry.New(surface, dataset, opts...)
	return c
}

// OnMapReady draws the base map and heat overlay, then shows every category.
// Layer failures are recorded in State and never stop the remaining layers.
func (c *Controller) OnMapReady(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return ErrAlreadyReady
	}
	c.ready = true

	if err := c.surface.AddTileLayer(c.cfg.Tiles); err != nil {
		c.tiles = models.TileStatus{Error: err.Error()}
		c.logger.Error("failed to add tile layer", zap.Error(err))
	} else {
		c.tiles = models.TileStatus{Rendered: true}
	}
	if b, ok := dataset.Bounds(c.dataset); ok {
		c.center = b.Center()
	}

	if c.loader != nil {
		n, err := c.loader.Render(ctx, c.surface)
		if err != nil {
			c.heat = models.HeatStatus{Unavailable: true, Error: err.Error()}
			c.logger.Warn("heat layer unavailable", zap.Error(err))
		} else {
			c.heat = models.HeatStatus{Rendered: true, Points: n}
		}
	}

	for _, cat := range c.dataset.Categories {
		if err := c.registry.SetCategoryVisible(cat, true); err != nil {
			c.logger.Error("failed to show category", zap.String("category", string(cat)), zap.Error(err))
		}
	}
	return nil
}

// SetCategoryVisible is the programmatic toggle
func (c *Controller) SetCategoryVisible(cat models.Category, visible bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.SetCategoryVisible(cat, visible)
}

// HandleCheckboxChange is the checkbox toggle
func (c *Controller) HandleCheckboxChange(cat models.Category, ev models.CheckboxEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.HandleCheckboxChange(cat, ev)
}

// CloseComparison hides the comparison panel
func (c *Controller) CloseComparison() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.comparison = Comparison{}
	c.surface.Refresh()
}

// ComparisonVisible reports the comparison flag
func (c *Controller) ComparisonVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.comparison.Visible
}

// State returns a snapshot of the controller
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Ready:      c.ready,
		Center:     c.center,
		Tiles:      c.tiles,
		Heat:       c.heat,
		Categories: c.registry.Summaries(),
		Comparison: c.comparison,
	}
}

// Categories returns the dataset categories in order
func (c *Controller) Categories() []models.CategorySummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Summaries()
}

// ClickMarker dispatches a marker click through the surface, if the surface
// can route clicks. The registry's click handler takes the lock itself.
func (c *Controller) ClickMarker(h mapsurface.MarkerHandle) error {
	clicker, ok := c.surface.(interface {
		Click(mapsurface.MarkerHandle) error
	})
	if !ok {
		return fmt.Errorf("surface does not dispatch clicks")
	}
	return clicker.Click(h)
}

func (c *Controller) markerClicked(rec models.ShelterRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	selected := rec
	c.comparison = Comparison{
		Visible:  true,
		Selected: &selected,
		Nearest:  nearestPerCategory(c.dataset, rec),
	}
	c.surface.Refresh()
}
