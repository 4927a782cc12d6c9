package spatial

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
)

// ParseDegrees parses a coordinate given in decimal degrees.
// Surrounding whitespace is ignored; empty strings, NaN and Inf are rejected.
func ParseDegrees(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty coordinate")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid coordinate %q", s)
	}
	return v, nil
}

// ValidateLatLng checks that the pair is a finite position on the globe
func ValidateLatLng(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("non-finite coordinate (%v, %v)", lat, lon)
	}
	if !s2.LatLngFromDegrees(lat, lon).IsValid() {
		return fmt.Errorf("coordinate out of range (%v, %v)", lat, lon)
	}
	return nil
}
