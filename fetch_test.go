package tilescene

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestHTTPFetcher(t *testing.T) {
	plain := []byte(`{"type":"FeatureCollection","features":[]}`)
	packed := gzipped(t, plain)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/plain.json":
			_, _ = w.Write(plain)
		case "/packed.json":
			assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(packed)
		case "/static.json.gz":
			_, _ = w.Write(packed)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	ctx := context.Background()

	for _, path := range []string{"/plain.json", "/packed.json", "/static.json.gz"} {
		body, err := f.Fetch(ctx, srv.URL+path)
		require.NoError(t, err, path)
		assert.Equal(t, plain, body, path)
	}

	_, err := f.Fetch(ctx, srv.URL+"/missing.json")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestHTTPFetcherHonoursCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPFetcher(5*time.Second).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPFetcherRejectsOversizedBody(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/big.json":
			_, _ = w.Write(body)
		case "/bomb.json.gz":
			_, _ = w.Write(gzipped(t, bytes.Repeat(body, 4)))
		case "/fits.json":
			_, _ = w.Write(body[:32])
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	f.MaxBytes = 32
	ctx := context.Background()

	for _, path := range []string{"/big.json", "/bomb.json.gz"} {
		_, err := f.Fetch(ctx, srv.URL+path)
		assert.ErrorIs(t, err, ErrPayloadTooLarge, path)
	}
	got, err := f.Fetch(ctx, srv.URL+"/fits.json")
	require.NoError(t, err)
	assert.Len(t, got, 32)
}
