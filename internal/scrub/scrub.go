// Package scrub collects named amenities from OpenStreetMap through the
// Overpass API and turns them into a shelter dataset.
package scrub

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MeKo-Christian/go-overpass"
	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/models"
	"github.com/jengzang/shelter-map/internal/spatial"
)

// BoundingBox is an Overpass (south, west, north, east) box
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// ParseBoundingBox parses "minLat,minLon,maxLat,maxLon"
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("bounding box needs 4 values, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := spatial.ParseDegrees(p)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("bounding box: %w", err)
		}
		v[i] = f
	}
	b := BoundingBox{MinLat: v[0], MinLon: v[1], MaxLat: v[2], MaxLon: v[3]}
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return BoundingBox{}, fmt.Errorf("bounding box %q is empty", s)
	}
	if err := spatial.ValidateLatLng(b.MinLat, b.MinLon); err != nil {
		return BoundingBox{}, err
	}
	if err := spatial.ValidateLatLng(b.MaxLat, b.MaxLon); err != nil {
		return BoundingBox{}, err
	}
	return b, nil
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

// BuildQuery returns the Overpass QL query for one amenity kind
func BuildQuery(box BoundingBox, amenity string) string {
	bbox := box.String()
	return fmt.Sprintf(`[out:json];
(
  node["amenity"=%[1]q](%[2]s);
  way["amenity"=%[1]q](%[2]s);
  relation["amenity"=%[1]q](%[2]s);
);
out body;
>;
out skel qt;`, amenity, bbox)
}

// Querier runs an Overpass query
type Querier interface {
	Query(query string) (overpass.Result, error)
}

// NewClient returns an Overpass client for the public endpoint
func NewClient() Querier {
	c := overpass.New()
	return &c
}

// Scraper queries amenities kind by kind
type Scraper struct {
	client Querier
	logger *zap.Logger
}

// NewScraper creates a scraper
func NewScraper(client Querier, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{client: client, logger: logger}
}

// Scrape builds a dataset with one category per amenity kind, in the given order
func (s *Scraper) Scrape(box BoundingBox, amenities []string) (*models.Dataset, error) {
	ds := models.NewDataset()
	for _, amenity := range amenities {
		result, err := s.client.Query(BuildQuery(box, amenity))
		if err != nil {
			return nil, fmt.Errorf("overpass query for %q failed: %w", amenity, err)
		}

		category := models.Category(amenity)
		ds.AddCategory(category)
		for _, rec := range Records(category, result) {
			ds.Add(rec)
		}
		s.logger.Info("amenity scraped", zap.String("amenity", amenity), zap.Int("records", len(ds.Records[category])))
	}
	return ds, nil
}

// Records converts named elements of a result: nodes, then ways, then
// relations, each ordered by id. Unnamed or unlocated elements are dropped.
func Records(category models.Category, result overpass.Result) []models.ShelterRecord {
	var out []models.ShelterRecord

	for _, id := range sortedKeys(result.Nodes) {
		n := result.Nodes[id]
		if name := n.Tags["name"]; name != "" {
			out = append(out, record(category, id, name, n.Lat, n.Lon))
		}
	}

	for _, id := range sortedKeys(result.Ways) {
		w := result.Ways[id]
		name := w.Tags["name"]
		if name == "" {
			continue
		}
		if lat, lon, ok := wayCenter(w); ok {
			out = append(out, record(category, id, name, lat, lon))
		}
	}

	for _, id := range sortedKeys(result.Relations) {
		r := result.Relations[id]
		name := r.Tags["name"]
		if name == "" || r.Bounds == nil {
			continue
		}
		lat, lon := boxCenter(r.Bounds)
		out = append(out, record(category, id, name, lat, lon))
	}
	return out
}

func record(category models.Category, id int64, name string, lat, lon float64) models.ShelterRecord {
	return models.ShelterRecord{ID: id, Category: category, Name: name, Latitude: lat, Longitude: lon}
}

func wayCenter(w *overpass.Way) (float64, float64, bool) {
	var points []spatial.Point
	for _, n := range w.Nodes {
		if n != nil {
			points = append(points, spatial.Point{Lat: n.Lat, Lon: n.Lon})
		}
	}
	if b, ok := spatial.BoundingBox(points); ok {
		c := b.Center()
		return c.Lat, c.Lon, true
	}
	if w.Bounds != nil {
		lat, lon := boxCenter(w.Bounds)
		return lat, lon, true
	}
	return 0, 0, false
}

func boxCenter(b *overpass.Box) (float64, float64) {
	c := spatial.Bounds{MinLat: b.Min.Lat, MinLon: b.Min.Lon, MaxLat: b.Max.Lat, MaxLon: b.Max.Lon}.Center()
	return c.Lat, c.Lon
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
