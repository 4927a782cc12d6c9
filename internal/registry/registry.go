// Package registry tracks which shelter markers are on the map, per category.
package registry

import (
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/mapsurface"
	"github.com/jengzang/shelter-map/internal/models"
)

// ErrUnknownCategory is returned for categories outside the dataset
var ErrUnknownCategory = errors.New("unknown category")

// DefaultIconBase is where category icons are served from
const DefaultIconBase = "assets/icons"

// ClickFunc is called when a shelter marker is clicked
type ClickFunc func(rec models.ShelterRecord)

// Option configures a Registry
type Option func(*Registry)

// WithClickHandler makes markers clickable
func WithClickHandler(fn ClickFunc) Option {
	return func(r *Registry) { r.onClick = fn }
}

// WithIconBase sets the directory icons are resolved against
func WithIconBase(base string) Option {
	return func(r *Registry) { r.iconBase = base }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// Registry owns the marker handles of every category. Every dataset category
// has an entry from construction on; no other key is ever added.
// A Registry is not safe for concurrent use.
type Registry struct {
	surface  mapsurface.Surface
	dataset  *models.Dataset
	markers  map[models.Category][]mapsurface.MarkerHandle
	iconBase string
	onClick  ClickFunc
	logger   *zap.Logger
}

// New creates a registry drawing on surface
func New(surface mapsurface.Surface, dataset *models.Dataset, opts ...Option) *Registry {
	r := &Registry{
		surface:  surface,
		dataset:  dataset,
		markers:  make(map[models.Category][]mapsurface.MarkerHandle, len(dataset.Categories)),
		iconBase: DefaultIconBase,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, c := range dataset.Categories {
		r.markers[c] = nil
	}
	return r
}

// IconPath returns the icon of a category
func (r *Registry) IconPath(c models.Category) string {
	return path.Join(r.iconBase, string(c)+".svg")
}

// SetCategoryVisible shows or hides every marker of a category.
// Showing a visible category and hiding a hidden one are no-ops, as is any
// change to DefaultCategory.
func (r *Registry) SetCategoryVisible(c models.Category, visible bool) error {
	if c == models.DefaultCategory {
		return nil
	}
	current, ok := r.markers[c]
	if !ok {
		r.logger.Warn("toggle of unknown category", zap.String("category", string(c)))
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}

	if !visible {
		return r.hide(c, current)
	}
	if len(current) == len(r.dataset.Records[c]) {
		return nil
	}
	if len(current) > 0 {
		// Leftovers of a failed hide or rollback are cleared before a full redraw
		if err := r.hide(c, current); err != nil {
			return err
		}
	}
	return r.show(c)
}

// HandleCheckboxChange adapts a checkbox change event to SetCategoryVisible
func (r *Registry) HandleCheckboxChange(c models.Category, ev models.CheckboxEvent) error {
	return r.SetCategoryVisible(c, ev.Target.Checked)
}

func (r *Registry) show(c models.Category) error {
	records := r.dataset.Records[c]
	handles := make([]mapsurface.MarkerHandle, 0, len(records))
	icon := r.IconPath(c)

	for _, rec := range records {
		spec := mapsurface.MarkerSpec{
			Lat:     rec.Latitude,
			Lon:     rec.Longitude,
			Icon:    icon,
			Tooltip: rec.Name,
		}
		if r.onClick != nil {
			spec.OnClick = func() { r.onClick(rec) }
		}

		h, err := r.surface.AddMarker(spec)
		if err != nil {
			// Roll back so the category stays all-or-nothing; anything the
			// surface refused to remove stays tracked
			left, _ := r.removeAll(handles)
			r.markers[c] = left
			return fmt.Errorf("failed to add marker %q to %q: %w", rec.Name, c, err)
		}
		handles = append(handles, h)
	}

	r.markers[c] = handles
	r.logger.Debug("category shown", zap.String("category", string(c)), zap.Int("markers", len(handles)))
	return nil
}

func (r *Registry) hide(c models.Category, handles []mapsurface.MarkerHandle) error {
	left, err := r.removeAll(handles)
	r.markers[c] = left
	if err != nil {
		return fmt.Errorf("failed to hide %q: %w", c, err)
	}
	r.logger.Debug("category hidden", zap.String("category", string(c)), zap.Int("markers", len(handles)))
	return nil
}

// removeAll removes every handle, continuing past failures. It returns the
// handles that are still on the surface.
func (r *Registry) removeAll(handles []mapsurface.MarkerHandle) ([]mapsurface.MarkerHandle, error) {
	var (
		left []mapsurface.MarkerHandle
		errs []error
	)
	for _, h := range handles {
		if err := r.surface.RemoveMarker(h); err != nil {
			left = append(left, h)
			errs = append(errs, err)
		}
	}
	return left, errors.Join(errs...)
}

// Markers returns a copy of the handles rendered for a category
func (r *Registry) Markers(c models.Category) []mapsurface.MarkerHandle {
	return append([]mapsurface.MarkerHandle(nil), r.markers[c]...)
}

// Visible reports whether the category currently has markers on the map
func (r *Registry) Visible(c models.Category) bool {
	return len(r.markers[c]) > 0
}

// Categories returns the dataset categories in order
func (r *Registry) Categories() []models.Category {
	return append([]models.Category(nil), r.dataset.Categories...)
}

// Summaries describes every category for the checkbox list
func (r *Registry) Summaries() []models.CategorySummary {
	out := make([]models.CategorySummary, 0, len(r.dataset.Categories))
	for _, c := range r.dataset.Categories {
		out = append(out, models.CategorySummary{
			Name:    c,
			Count:   len(r.dataset.Records[c]),
			Visible: r.Visible(c),
			Icon:    r.IconPath(c),
		})
	}
	return out
}
