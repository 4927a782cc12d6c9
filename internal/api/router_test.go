package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/config"
	"github.com/jengzang/shelter-map/internal/controller"
	"github.com/jengzang/shelter-map/internal/handler"
	"github.com/jengzang/shelter-map/internal/heat"
	"github.com/jengzang/shelter-map/internal/models"
	"github.com/jengzang/shelter-map/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type gridReader struct {
	doc string
	err error
}

func (r gridReader) ReadJSON(ctx context.Context, location string, v any) error {
	if r.err != nil {
		return r.err
	}
	return json.Unmarshal([]byte(r.doc), v)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type view struct {
	State struct {
		Heat       models.HeatStatus        `json:"heat"`
		Categories []models.CategorySummary `json:"categories"`
		Comparison struct {
			Visible  bool                  `json:"visible"`
			Selected *models.ShelterRecord `json:"selected"`
		} `json:"comparison"`
	} `json:"state"`
	Scene struct {
		HeatLayers []struct {
			Radius int                `json:"radius"`
			Points []models.HeatPoint `json:"points"`
		} `json:"heatLayers"`
		Markers []struct {
			Handle  string  `json:"handle"`
			Lat     float64 `json:"lat"`
			Lon     float64 `json:"lon"`
			Icon    string  `json:"icon"`
			Tooltip string  `json:"tooltip"`
		} `json:"markers"`
	} `json:"scene"`
}

func setup(t *testing.T, reader gridReader) *gin.Engine {
	t.Helper()
	cfg := config.Default()
	cfg.AssetsDir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.AssetsDir, "icons"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.AssetsDir, "icons", "clinic.svg"), []byte("<svg/>"), 0o644))

	ds := models.NewDataset()
	ds.AddCategory(models.DefaultCategory)
	ds.Add(models.ShelterRecord{Category: "clinic", Name: "A", Latitude: 31.5, Longitude: 34.5})
	ds.Add(models.ShelterRecord{Category: "shelter", Name: "S1", Latitude: 31.4, Longitude: 34.4})

	mgr := session.NewManager(session.Config{
		Secret: []byte(cfg.JWTSecret),
		TTL:    time.Hour,
		Controller: controller.Config{
			Tiles:    cfg.Tiles,
			IconBase: cfg.IconBase,
		},
	}, ds, heat.NewGridSource(reader, "heat.json", nil), nil)

	return SetupRouter(cfg, Deps{
		Sessions:   mgr,
		MapHandler: handler.NewMapHandler(mgr, models.LoadReport{Loaded: 2, Skipped: 1}),
		Logger:     zap.NewNop(),
	})
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func decodeView(t *testing.T, raw json.RawMessage) view {
	t.Helper()
	var v view
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func createSession(t *testing.T, r *gin.Engine) (string, view) {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/api/v1/sessions", "", nil)
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Token     string          `json:"token"`
		SessionID string          `json:"sessionId"`
		ExpiresAt time.Time       `json:"expiresAt"`
		View      json.RawMessage `json:"view"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	require.NotEmpty(t, data.SessionID)
	require.False(t, data.ExpiresAt.IsZero())
	return data.Token, decodeView(t, data.View)
}

func TestMapReadyRendersEverything(t *testing.T) {
	r := setup(t, gridReader{doc: `[[31.0,34.0,0.5],[31.1,34.1,0.2]]`})
	_, v := createSession(t, r)

	require.Len(t, v.Scene.HeatLayers, 1)
	assert.Equal(t, 15, v.Scene.HeatLayers[0].Radius)
	assert.Equal(t, []models.HeatPoint{{Lat: 31.0, Lon: 34.0, Weight: 1.0}}, v.Scene.HeatLayers[0].Points)

	require.Len(t, v.Scene.Markers, 2)
	assert.Equal(t, "A", v.Scene.Markers[0].Tooltip)
	assert.Equal(t, "/assets/icons/clinic.svg", v.Scene.Markers[0].Icon)
	assert.True(t, v.State.Heat.Rendered)
}

func TestHeatFailureIsReported(t *testing.T) {
	r := setup(t, gridReader{err: errors.New("dial tcp: refused")})
	_, v := createSession(t, r)

	assert.True(t, v.State.Heat.Unavailable)
	assert.Empty(t, v.Scene.HeatLayers)
	assert.Len(t, v.Scene.Markers, 2)
}

func TestToggleEndpoints(t *testing.T) {
	r := setup(t, gridReader{doc: `[]`})
	token, _ := createSession(t, r)

	code, env := do(t, r, http.MethodPost, "/api/v1/categories/clinic/change", token,
		models.CheckboxEvent{Target: models.CheckboxTarget{Checked: false}})
	require.Equal(t, http.StatusOK, code)
	v := decodeView(t, env.Data)
	require.Len(t, v.Scene.Markers, 1)
	assert.Equal(t, "S1", v.Scene.Markers[0].Tooltip)

	code, env = do(t, r, http.MethodPut, "/api/v1/categories/clinic", token, gin.H{"visible": true})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeView(t, env.Data).Scene.Markers, 2)

	// idempotent on
	code, env = do(t, r, http.MethodPut, "/api/v1/categories/clinic", token, gin.H{"visible": true})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeView(t, env.Data).Scene.Markers, 2)

	code, env = do(t, r, http.MethodPut, "/api/v1/categories/default", token, gin.H{"visible": false})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeView(t, env.Data).Scene.Markers, 2)

	code, _ = do(t, r, http.MethodPut, "/api/v1/categories/hospital", token, gin.H{"visible": true})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, r, http.MethodPut, "/api/v1/categories/clinic", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, r, http.MethodGet, "/api/v1/categories", token, nil)
	require.Equal(t, http.StatusOK, code)
	var cats struct {
		Data  []models.CategorySummary `json:"data"`
		Count int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cats))
	assert.Equal(t, 3, cats.Count)
	assert.Equal(t, models.Category("clinic"), cats.Data[1].Name)
	assert.True(t, cats.Data[1].Visible)
}

func TestComparisonEndpoints(t *testing.T) {
	r := setup(t, gridReader{doc: `[]`})
	token, v := createSession(t, r)

	handle := v.Scene.Markers[1].Handle
	code, env := do(t, r, http.MethodPost, "/api/v1/markers/"+handle+"/click", token, nil)
	require.Equal(t, http.StatusOK, code)
	v = decodeView(t, env.Data)
	assert.True(t, v.State.Comparison.Visible)
	require.NotNil(t, v.State.Comparison.Selected)
	assert.Equal(t, "S1", v.State.Comparison.Selected.Name)

	code, env = do(t, r, http.MethodPost, "/api/v1/comparison/close", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decodeView(t, env.Data).State.Comparison.Visible)

	code, _ = do(t, r, http.MethodPost, "/api/v1/markers/nope/click", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAuthAndPublicRoutes(t *testing.T) {
	r := setup(t, gridReader{doc: `[]`})

	code, _ := do(t, r, http.MethodGet, "/api/v1/sessions/current", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	token, _ := createSession(t, r)
	code, env := do(t, r, http.MethodGet, "/api/v1/sessions/current", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeView(t, env.Data).Scene.Markers, 2)

	code, env = do(t, r, http.MethodGet, "/api/v1/dataset/report", "", nil)
	require.Equal(t, http.StatusOK, code)
	var report models.LoadReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 1, report.Skipped)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/icons/clinic.svg", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
