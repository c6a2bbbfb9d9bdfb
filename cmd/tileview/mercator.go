package main

import (
	"math"

	"github.com/gekko3d/tilescene"
)

const tileSize = 256

// mercatorViewport is a spherical Web Mercator map view, the host-side
// stand-in for a browser map engine.
type mercatorViewport struct {
	zoom    float64
	zoomMin float64
	zoomMax float64
	size    tilescene.Size
	angle   float64
	center  tilescene.LatLon
}

func newMercatorViewport(center tilescene.LatLon, zoom float64, size tilescene.Size) *mercatorViewport {
	return &mercatorViewport{
		zoom:    zoom,
		zoomMin: 0,
		zoomMax: 22,
		size:    size,
		center:  center,
	}
}

func (v *mercatorViewport) Zoom() float64            { return v.zoom }
func (v *mercatorViewport) Size() tilescene.Size     { return v.size }
func (v *mercatorViewport) Angle() float64           { return v.angle }
func (v *mercatorViewport) Center() tilescene.LatLon { return v.center }

func (v *mercatorViewport) SetZoom(z float64) {
	v.zoom = math.Max(v.zoomMin, math.Min(v.zoomMax, z))
}

// world returns the location in world pixels at zoom z.
func world(ll tilescene.LatLon, z float64) tilescene.Point {
	scale := tileSize * math.Pow(2, z)
	lat := math.Max(-85.05112878, math.Min(85.05112878, ll.Lat))
	sin := math.Sin(lat * math.Pi / 180)
	return tilescene.Point{
		X: (ll.Lon + 180) / 360 * scale,
		Y: (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * scale,
	}
}

func (v *mercatorViewport) LocationPoint(ll tilescene.LatLon) tilescene.Point {
	p := world(ll, v.zoom)
	c := world(v.center, v.zoom)
	dx, dy := p.X-c.X, p.Y-c.Y
	if v.angle != 0 {
		cos, sin := math.Cos(v.angle), math.Sin(v.angle)
		dx, dy = dx*cos-dy*sin, dx*sin+dy*cos
	}
	return tilescene.Point{X: dx + v.size.X/2, Y: dy + v.size.Y/2}
}

// VisibleTiles lists the tiles covering the view at the rounded zoom level,
// with translations relative to the view centre in tile-layer pixels.
func (v *mercatorViewport) VisibleTiles() []tilescene.TileView {
	level := int(math.Floor(v.zoom + 0.5))
	s := math.Pow(2, v.zoom-float64(level))
	c := world(v.center, float64(level))

	// a rotated view can expose the corners of the bounding square
	half := math.Hypot(v.size.X, v.size.Y) / 2 / s
	col0 := int(math.Floor((c.X - half) / tileSize))
	col1 := int(math.Floor((c.X + half) / tileSize))
	row0 := max(int(math.Floor((c.Y-half)/tileSize)), 0)
	row1 := min(int(math.Floor((c.Y+half)/tileSize)), 1<<level-1)

	var views []tilescene.TileView
	for row := row0; row <= row1; row++ {
		for col := col0; col <= col1; col++ {
			views = append(views, tilescene.TileView{
				Key: tilescene.TileKey{Column: col, Row: row, Zoom: level},
				Translate: tilescene.Point{
					X: float64(col*tileSize) - c.X,
					Y: float64(row*tileSize) - c.Y,
				},
			})
		}
	}
	return views
}
