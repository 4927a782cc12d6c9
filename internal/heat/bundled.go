package heat

import _ "embed"

//go:embed data/features.geojson
var bundledFeatures []byte

// NewBundledFeatureSource serves the feature collection compiled into the binary
func NewBundledFeatureSource() *FeatureSource {
	return NewStaticFeatureSource(bundledFeatures)
}
