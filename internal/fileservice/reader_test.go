package fileservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heat.json")
	require.NoError(t, os.WriteFile(path, []byte(`[[31.0, 34.0, 0.5]]`), 0o644))

	var out [][]float64
	err := New(nil, time.Second).ReadJSON(context.Background(), path, &out)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{31.0, 34.0, 0.5}}, out)

	err = New(nil, 0).ReadJSON(context.Background(), filepath.Join(t.TempDir(), "missing.json"), &out)
	assert.Error(t, err)
}

func TestReadJSONOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			w.Write([]byte(`{"a": 1}`))
		case "/bad.json":
			w.Write([]byte(`{"a":`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	reader := New(srv.Client(), time.Second)

	var out map[string]int
	require.NoError(t, reader.ReadJSON(context.Background(), srv.URL+"/ok.json", &out))
	assert.Equal(t, 1, out["a"])

	assert.Error(t, reader.ReadJSON(context.Background(), srv.URL+"/bad.json", &out))
	assert.Error(t, reader.ReadJSON(context.Background(), srv.URL+"/missing.json", &out))
}

func TestReadJSONTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	var out any
	err := New(srv.Client(), 50*time.Millisecond).ReadJSON(context.Background(), srv.URL, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
