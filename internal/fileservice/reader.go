// Package fileservice reads JSON assets from disk or over HTTP.
package fileservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Reader fetches a JSON document and decodes it into v
type Reader interface {
	ReadJSON(ctx context.Context, location string, v any) error
}

// JSONReader reads from local paths and http(s) URLs
type JSONReader struct {
	client  *http.Client
	timeout time.Duration
}

// New creates a reader. A nil client uses http.DefaultClient; a zero timeout
// leaves reads bounded only by ctx.
func New(client *http.Client, timeout time.Duration) *JSONReader {
	if client == nil {
		client = http.DefaultClient
	}
	return &JSONReader{client: client, timeout: timeout}
}

// ReadJSON loads location and decodes it
func (r *JSONReader) ReadJSON(ctx context.Context, location string, v any) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	body, err := r.open(ctx, location)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", location, err)
	}
	return nil
}

func (r *JSONReader) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !isRemote(location) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", location, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", location, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: status %d", location, resp.StatusCode)
	}
	return resp.Body, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
