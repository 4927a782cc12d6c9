package heat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/mapsurface"
	"github.com/jengzang/shelter-map/internal/models"
)

// stubReader serves fixed documents by location
type stubReader struct {
	docs map[string]string
	err  error
}

func (r *stubReader) ReadJSON(ctx context.Context, location string, v any) error {
	if r.err != nil {
		return r.err
	}
	doc, ok := r.docs[location]
	if !ok {
		return errors.New("not found")
	}
	return json.Unmarshal([]byte(doc), v)
}

func TestGridSourceFiltersAndBoosts(t *testing.T) {
	reader := &stubReader{docs: map[string]string{"heat.json": `[[31.0,34.0,0.5],[31.1,34.1,0.2]]`}}

	points, err := NewGridSource(reader, "heat.json", zap.NewNop()).Points(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.HeatPoint{{Lat: 31.0, Lon: 34.0, Weight: 1.0}}, points)
}

func TestBoostedThreshold(t *testing.T) {
	raw := []models.HeatPoint{
		{Lat: 1, Lon: 1, Weight: Threshold},
		{Lat: 2, Lon: 2, Weight: 0.33},
		{Lat: 3, Lon: 3, Weight: 0},
		{Lat: 4, Lon: 4, Weight: 0.9},
	}
	out := Boosted(raw)
	require.Len(t, out, 2)
	for _, p := range out {
		assert.Greater(t, p.Weight, Threshold*Boost)
	}
	assert.InDelta(t, 0.66, out[0].Weight, 1e-9)
	assert.InDelta(t, 1.8, out[1].Weight, 1e-9)
	// input untouched
	assert.Equal(t, 0.9, raw[3].Weight)
}

func TestGridSourceSkipsShortRows(t *testing.T) {
	reader := &stubReader{docs: map[string]string{"heat.json": `[[31.0,34.0],[31.0,34.0,0.8,1],[31.2,34.2,0.4]]`}}

	points, err := NewGridSource(reader, "heat.json", nil).Points(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 0.8, points[0].Weight, 1e-9)
}

func TestGridSourceSkipsMalformedRows(t *testing.T) {
	reader := &stubReader{docs: map[string]string{"heat.json": `[[31.0,34.0,0.5],[31.1,"34.1",0.9],{"lat":1},null,[31.3,34.3,0.7]]`}}

	points, err := NewGridSource(reader, "heat.json", nil).Points(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 31.0, points[0].Lat)
	assert.InDelta(t, 1.0, points[0].Weight, 1e-9)
	assert.Equal(t, 31.3, points[1].Lat)
	assert.InDelta(t, 1.4, points[1].Weight, 1e-9)
}

func TestGridSourcePropagatesReadErrors(t *testing.T) {
	reader := &stubReader{err: errors.New("connection refused")}
	_, err := NewGridSource(reader, "heat.json", nil).Points(context.Background())
	assert.EqualError(t, err, "connection refused")
}

const collection = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [34.4, 31.4]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[34.4, 31.4], [34.5, 31.5]]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": "MultiPoint", "coordinates": [[34.6, 31.6], [34.7, 31.7]]}}
	]
}`

func TestFeatureSource(t *testing.T) {
	points, err := NewStaticFeatureSource([]byte(collection)).Points(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.HeatPoint{
		{Lat: 31.4, Lon: 34.4, Weight: FixedWeight},
		{Lat: 31.6, Lon: 34.6, Weight: FixedWeight},
		{Lat: 31.7, Lon: 34.7, Weight: FixedWeight},
	}, points)

	reader := &stubReader{docs: map[string]string{"features.geojson": collection}}
	points, err = NewFeatureSource(reader, "features.geojson").Points(context.Background())
	require.NoError(t, err)
	assert.Len(t, points, 3)

	_, err = NewStaticFeatureSource([]byte(`{"type": "FeatureCollection", "features": 7}`)).Points(context.Background())
	assert.Error(t, err)
}

func TestBundledFeatureSource(t *testing.T) {
	points, err := NewBundledFeatureSource().Points(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.Equal(t, models.HeatPoint{Lat: 31.5017, Lon: 34.4668, Weight: FixedWeight}, points[0])
}

func TestLoaderRender(t *testing.T) {
	reader := &stubReader{docs: map[string]string{"heat.json": `[[31.0,34.0,0.5],[31.1,34.1,0.2]]`}}
	scene := mapsurface.NewScene()

	n, err := NewLoader(NewGridSource(reader, "heat.json", nil), nil).Render(context.Background(), scene)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	snap := scene.Snapshot()
	require.Len(t, snap.HeatLayers, 1)
	assert.Equal(t, Radius, snap.HeatLayers[0].Radius)
	assert.Equal(t, []models.HeatPoint{{Lat: 31.0, Lon: 34.0, Weight: 1.0}}, snap.HeatLayers[0].Points)
}

func TestLoaderRenderFailure(t *testing.T) {
	scene := mapsurface.NewScene()
	loader := NewLoader(NewGridSource(&stubReader{err: errors.New("timeout")}, "heat.json", nil), nil)

	_, err := loader.Render(context.Background(), scene)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Empty(t, scene.Snapshot().HeatLayers)
}

func TestNormalize(t *testing.T) {
	out, err := Normalize([]models.HeatPoint{{Lat: 1, Lon: 1, Weight: 50}, {Lat: 2, Lon: 2, Weight: 34}}, 200)
	require.NoError(t, err)
	assert.Equal(t, 0.25, out[0].Weight)
	assert.Equal(t, 0.17, out[1].Weight)

	_, err = Normalize(nil, 0)
	assert.Error(t, err)
}
