package spatial

import (
	"github.com/golang/geo/s2"
)

// Point represents a position in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is a lat/lon box in degrees
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// Center returns the middle of the box
func (b Bounds) Center() Point {
	r := b.rect()
	c := r.Center()
	return Point{Lat: c.Lat.Degrees(), Lon: c.Lng.Degrees()}
}

func (b Bounds) rect() s2.Rect {
	return s2.RectFromLatLng(s2.LatLngFromDegrees(b.MinLat, b.MinLon)).
		AddPoint(s2.LatLngFromDegrees(b.MaxLat, b.MaxLon))
}

// BoundingBox returns the smallest box containing all points.
// The second result is false when there are no points.
func BoundingBox(points []Point) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	r := s2.EmptyRect()
	for _, p := range points {
		r = r.AddPoint(s2.LatLngFromDegrees(p.Lat, p.Lon))
	}
	return Bounds{
		MinLat: r.Lo().Lat.Degrees(),
		MinLon: r.Lo().Lng.Degrees(),
		MaxLat: r.Hi().Lat.Degrees(),
		MaxLon: r.Hi().Lng.Degrees(),
	}, true
}
