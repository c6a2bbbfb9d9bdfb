package tilescene

import (
	"math"
)

type Point struct {
	X, Y float64
}

// Size is a pixel extent.
type Size struct {
	X, Y float64
}

type LatLon struct {
	Lat, Lon float64
}

// Viewport is the surrounding map engine as seen by the layer. All methods
// are read on the loop goroutine.
type Viewport interface {
	Zoom() float64
	Size() Size
	Angle() float64
	Center() LatLon
	// LocationPoint projects a geographic location to viewport pixels at the
	// current (fractional) zoom, origin top-left.
	LocationPoint(LatLon) Point
}

// SurfaceHost is implemented by viewports that can display the layer's
// render surface. Attach inserts the renderer through it.
type SurfaceHost interface {
	InsertSurface(r Renderer)
}

// ViewState is a snapshot of the viewport taken on each move or resize.
type ViewState struct {
	Zoom         float64
	ZoomLevel    int
	ZoomFraction float64
	Size         Size
	Angle        float64
	Center       LatLon
}

// roundZoom rounds half up, so 10.5 belongs to level 11.
func roundZoom(z float64) int {
	return int(math.Floor(z + 0.5))
}

func Snapshot(vp Viewport) ViewState {
	zoom := vp.Zoom()
	level := roundZoom(zoom)
	return ViewState{
		Zoom:         zoom,
		ZoomLevel:    level,
		ZoomFraction: zoom - float64(level),
		Size:         vp.Size(),
		Angle:        vp.Angle(),
		Center:       vp.Center(),
	}
}

// Scale is the continuous-zoom factor applied to the tile layer at render
// time.
func (v ViewState) Scale() float64 {
	return math.Pow(2, v.ZoomFraction)
}

// Aspect is width over height, or 1 for an empty viewport.
func (v ViewState) Aspect() float64 {
	if v.Size.X <= 0 || v.Size.Y <= 0 {
		return 1
	}
	return v.Size.X / v.Size.Y
}

// TileLocal converts a viewport pixel into the tile's local frame: tile
// layer pixels at the tile's own zoom, relative to its top-left corner,
// with Y pointing up.
func (v ViewState) TileLocal(t *Tile, p Point) (float64, float64) {
	s := math.Pow(2, v.Zoom-float64(t.Key.Zoom))
	lx := (p.X-v.Size.X/2)/s - t.Translate.X
	ly := (p.Y-v.Size.Y/2)/s - t.Translate.Y
	return lx, -ly
}
