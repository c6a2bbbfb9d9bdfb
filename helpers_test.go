package tilescene

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gekko3d/tilescene/scene"
)

// fakeViewport treats lon/lat as pixels at its starting zoom and scales
// them about the viewport centre as the zoom changes.
type fakeViewport struct {
	base     float64
	zoom     float64
	size     Size
	angle    float64
	center   LatLon
	surfaces []Renderer
}

func newFakeViewport(zoom float64) *fakeViewport {
	return &fakeViewport{base: zoom, zoom: zoom, size: Size{X: 800, Y: 600}}
}

func (v *fakeViewport) Zoom() float64            { return v.zoom }
func (v *fakeViewport) Size() Size               { return v.size }
func (v *fakeViewport) Angle() float64           { return v.angle }
func (v *fakeViewport) Center() LatLon           { return v.center }
func (v *fakeViewport) InsertSurface(r Renderer) { v.surfaces = append(v.surfaces, r) }

func (v *fakeViewport) LocationPoint(ll LatLon) Point {
	s := math.Pow(2, v.zoom-v.base)
	cx, cy := v.size.X/2, v.size.Y/2
	return Point{X: cx + (ll.Lon-cx)*s, Y: cy + (ll.Lat-cy)*s}
}

// manualSpawner holds spawned work until the test runs it.
type manualSpawner struct {
	mu   sync.Mutex
	jobs []func()
}

func (s *manualSpawner) Spawn(fn func()) {
	s.mu.Lock()
	s.jobs = append(s.jobs, fn)
	s.mu.Unlock()
}

func (s *manualSpawner) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Run runs the i-th held job.
func (s *manualSpawner) Run(i int) {
	s.mu.Lock()
	fn := s.jobs[i]
	s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
	s.mu.Unlock()
	fn()
}

func (s *manualSpawner) RunAll() {
	for s.Len() > 0 {
		s.Run(0)
	}
}

// staticFetcher serves bodies by URL and records every request.
type staticFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	calls  []string
}

func newStaticFetcher() *staticFetcher {
	return &staticFetcher{bodies: make(map[string][]byte)}
}

func (f *staticFetcher) Set(url string, body []byte) {
	f.mu.Lock()
	f.bodies[url] = body
	f.mu.Unlock()
}

func (f *staticFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *staticFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, &HTTPError{URL: url, StatusCode: 404}
	}
	return body, nil
}

const testTemplate = "http://tiles.test/{Z}/{X}/{Y}.json"

func tileURL(k TileKey) string {
	return fmt.Sprintf("http://tiles.test/%d/%d/%d.json", k.Zoom, k.Column, k.Row)
}

// building is a square footprint of side 10 at (x, y) in viewport pixels.
type building struct {
	id   string
	x, y float64
	min  float64
	max  float64
}

func (b building) json() string {
	x0, y0, x1, y1 := b.x, b.y, b.x+10, b.y+10
	return fmt.Sprintf(`{"type":"Feature","properties":{"code":%q,"minheight":%v,"maxheight":%v},`+
		`"geometry":{"type":"Polygon","coordinates":[[[%v,%v],[%v,%v],[%v,%v],[%v,%v],[%v,%v]]]}}`,
		b.id, b.min, b.max, x0, y0, x1, y0, x1, y1, x0, y1, x0, y0)
}

func collection(features ...string) []byte {
	return []byte(`{"type":"FeatureCollection","features":[` + strings.Join(features, ",") + `]}`)
}

type harness struct {
	layer    *Layer
	vp       *fakeViewport
	spawner  *manualSpawner
	fetcher  *staticFetcher
	renderer *scene.HeadlessRenderer
	logger   *recordingLogger
}

func newHarness(t *testing.T, opts LayerOptions) *harness {
	t.Helper()
	h := &harness{
		vp:       newFakeViewport(10),
		spawner:  &manualSpawner{},
		fetcher:  newStaticFetcher(),
		renderer: scene.NewHeadlessRenderer(),
		logger:   newRecordingLogger(nil),
	}
	opts.Logger = h.logger
	opts.Pipeline.Spawner = h.spawner.Spawn
	content := NewFootprints(h.fetcher, FootprintOptions{URL: NewTemplate(testTemplate)})
	h.layer = NewLayer(content, h.renderer, opts)
	require.NoError(t, h.layer.Attach(h.vp))
	return h
}

// settle runs every held fetch and drains the loop.
func (h *harness) settle() {
	h.spawner.RunAll()
	h.layer.RunPending()
}

func (h *harness) tile(k TileKey) *Tile {
	t, _ := h.layer.Context().Tiles.Get(k)
	return t
}

func view(col, row, zoom int) TileView {
	return TileView{
		Key:       TileKey{Column: col, Row: row, Zoom: zoom},
		Translate: Point{X: float64(col-2) * 256, Y: float64(row-2) * 256},
	}
}

// recordingLogger keeps warnings in memory so they can be inspected.
type recordingLogger struct {
	Logger
	mu       sync.Mutex
	warnings []string
}

func newRecordingLogger(inner Logger) *recordingLogger {
	if inner == nil {
		inner = NewNopLogger()
	}
	return &recordingLogger{Logger: inner}
}

func (r *recordingLogger) Warnf(format string, args ...any) {
	r.mu.Lock()
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
	r.mu.Unlock()
	r.Logger.Warnf(format, args...)
}

func (r *recordingLogger) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}
