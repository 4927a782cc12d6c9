package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jengzang/shelter-map/internal/controller"
	"github.com/jengzang/shelter-map/internal/heat"
	"github.com/jengzang/shelter-map/internal/mapsurface"
	"github.com/jengzang/shelter-map/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const collection = `{"type": "FeatureCollection", "features": [
	{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [34.4, 31.4]}}
]}`

func newManager(t *testing.T) *Manager {
	t.Helper()
	ds := models.NewDataset()
	ds.Add(models.ShelterRecord{Category: "clinic", Name: "A", Latitude: 31.5, Longitude: 34.5})

	cfg := Config{
		Secret: []byte("test-secret"),
		TTL:    time.Hour,
		Controller: controller.Config{
			Tiles: mapsurface.TileLayer{URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", MaxZoom: 18},
		},
	}
	return NewManager(cfg, ds, heat.NewStaticFeatureSource([]byte(collection)), nil)
}

func TestCreateAndResolve(t *testing.T) {
	m := newManager(t)

	s, token, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	snap := s.Scene.Snapshot()
	assert.Len(t, snap.TileLayers, 1)
	assert.Len(t, snap.HeatLayers, 1)
	assert.Len(t, snap.Markers, 1)

	got, err := m.Resolve(token)
	require.NoError(t, err)
	assert.Same(t, s, got)

	// sessions are independent surfaces
	s2, _, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, s2.ID)
	require.NoError(t, s2.Controller.SetCategoryVisible("clinic", false))
	assert.Equal(t, 1, s.Scene.MarkerCount())
	assert.Equal(t, 2, m.Len())
}

func TestResolveRejectsBadTokens(t *testing.T) {
	m := newManager(t)
	_, token, err := m.Create(context.Background())
	require.NoError(t, err)

	_, err = m.Resolve("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Resolve(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := newManager(t)
	other.cfg.Secret = []byte("another-secret")
	_, err = other.Resolve(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// valid signature, unknown session
	other.cfg.Secret = m.cfg.Secret
	_, err = other.Resolve(token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpiry(t *testing.T) {
	m := newManager(t)
	now := time.Now()
	m.now = func() time.Time { return now }

	_, token, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.Zero(t, m.Sweep())

	now = now.Add(2 * time.Hour)
	_, err = m.Resolve(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.Equal(t, 1, m.Sweep())
	assert.Zero(t, m.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	m := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Run(ctx, time.Millisecond)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	wg.Wait()
}
