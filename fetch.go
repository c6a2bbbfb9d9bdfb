package tilescene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Fetcher retrieves one URL. Implementations must honour ctx cancellation
// on a best-effort basis; the pipeline discards late results regardless.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// MaxPayloadSize caps a single response body.
const MaxPayloadSize = 64 << 20

var ErrPayloadTooLarge = errors.New("payload too large")

type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	// MaxBytes caps a response body before and after gunzip; 0 means
	// MaxPayloadSize.
	MaxBytes int64
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: "tilescene/1",
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = MaxPayloadSize
	}
	body, err := readLimited(resp.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	// Accept-Encoding is set explicitly, so the transport leaves gzip
	// bodies compressed; pre-compressed .json.gz assets arrive the same way.
	if isGzip(body) {
		body, err = gunzip(body, limit)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", url, err)
		}
	}
	return body, nil
}

// readLimited reads r to the end, failing once more than limit bytes
// arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrPayloadTooLarge, limit)
	}
	return b, nil
}

func isGzip(b []byte) bool {
	return len(b) > 2 && b[0] == 0x1f && b[1] == 0x8b
}

func gunzip(b []byte, limit int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	defer zr.Close()
	out, err := readLimited(zr, limit)
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	return out, nil
}
