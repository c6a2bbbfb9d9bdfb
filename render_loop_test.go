package tilescene

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizeUpdatesAspectBeforeNextFrame(t *testing.T) {
	h := newHarness(t, LayerOptions{})
	tv := view(1, 1, 10)
	h.fetcher.Set(tileURL(tv.Key), collection())
	require.NoError(t, h.layer.SetVisibleTiles([]TileView{tv}))
	assert.InDelta(t, 800.0/600.0, h.layer.Camera().Aspect, 1e-6)

	h.vp.size = Size{X: 400, Y: 300}
	require.NoError(t, h.layer.Resize())

	// the tile fetch is still pending
	assert.Equal(t, 1, h.spawner.Len())
	assert.InDelta(t, 4.0/3.0, h.layer.Camera().Aspect, 1e-6)
	assert.Equal(t, 400, h.renderer.Width)
	assert.Equal(t, 300, h.renderer.Height)

	require.NoError(t, h.layer.Frame(time.Now()))
	assert.Equal(t, uint64(1), h.renderer.Frames)
}

func TestResizeAspectProperty(t *testing.T) {
	h := newHarness(t, LayerOptions{})
	for _, s := range []Size{{1920, 1080}, {300, 900}, {1, 1}, {1023, 767}} {
		h.vp.size = s
		require.NoError(t, h.layer.Resize())
		assert.InDelta(t, s.X/s.Y, h.layer.Camera().Aspect, 1e-6)
		assert.NoError(t, h.layer.Frame(time.Now()))
	}
}

func TestAttachInsertsSurface(t *testing.T) {
	h := newHarness(t, LayerOptions{})
	require.Len(t, h.vp.surfaces, 1)
	assert.Same(t, h.renderer, h.vp.surfaces[0])
}

func TestFixedDampingMovesCameraTowardPointer(t *testing.T) {
	h := newHarness(t, LayerOptions{Render: RenderOptions{FixedDamping: true}})
	cam := h.layer.Camera()
	assert.Equal(t, float32(400), cam.Position.Z())

	h.layer.SetPointer(500, 400)
	now := time.Now()
	require.NoError(t, h.layer.Frame(now))
	assert.InDelta(t, 0.5, cam.Position.X(), 1e-5)
	assert.InDelta(t, -2.0, cam.Position.Y(), 1e-5)

	// the step ignores how long the frame took
	require.NoError(t, h.layer.Frame(now.Add(time.Second)))
	assert.InDelta(t, 0.5+(50-0.5)*0.01, cam.Position.X(), 1e-4)
}

func TestDampingIsNormalizedByElapsedTime(t *testing.T) {
	a := newHarness(t, LayerOptions{})
	b := newHarness(t, LayerOptions{})
	a.layer.SetPointer(500, 300)
	b.layer.SetPointer(500, 300)

	start := time.Now()
	require.NoError(t, a.layer.Frame(start))
	require.NoError(t, b.layer.Frame(start))
	for i := 1; i <= 60; i++ {
		require.NoError(t, a.layer.Frame(start.Add(time.Duration(i)*time.Second/60)))
	}
	for i := 1; i <= 30; i++ {
		require.NoError(t, b.layer.Frame(start.Add(time.Duration(i)*time.Second/30)))
	}
	assert.InDelta(t, a.layer.Camera().Position.X(), b.layer.Camera().Position.X(), 1e-3)
}

func TestMoveRollsCamera(t *testing.T) {
	h := newHarness(t, LayerOptions{})
	h.vp.angle = 0.5
	require.NoError(t, h.layer.Move())
	assert.Equal(t, float32(0.5), h.layer.Camera().Roll)
}

func TestFrameCountsRenderErrors(t *testing.T) {
	h := newHarness(t, LayerOptions{})
	tv := view(1, 1, 10)
	h.fetcher.Set(tileURL(tv.Key), collection(building{id: "b", x: 0, y: 0, max: 2}.json()))
	require.NoError(t, h.layer.SetVisibleTiles([]TileView{tv}))
	h.settle()

	obj, _ := h.layer.Context().Sync.Object(tv.Key)
	obj.Meshes()[0].Geometry.Dispose()

	assert.Error(t, h.layer.Frame(time.Now()))
	m := h.layer.Context().Metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RenderErrors))
	assert.Equal(t, uint64(1), h.layer.Stats().Frames.Errors)
}
