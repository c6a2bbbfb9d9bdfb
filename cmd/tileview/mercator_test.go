package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/tilescene"
)

func TestVisibleTilesCoverCentre(t *testing.T) {
	sf := tilescene.LatLon{Lat: 37.7749, Lon: -122.4194}
	vp := newMercatorViewport(sf, 15.3, tilescene.Size{X: 800, Y: 600})

	views := vp.VisibleTiles()
	require.NotEmpty(t, views)

	// the tile holding the centre contains it in its local frame
	view := tilescene.Snapshot(vp)
	c := world(sf, 15)
	key := tilescene.TileKey{Column: int(c.X) / tileSize, Row: int(c.Y) / tileSize, Zoom: 15}
	var found *tilescene.TileView
	for i := range views {
		assert.Equal(t, 15, views[i].Key.Zoom)
		if views[i].Key == key {
			found = &views[i]
		}
	}
	require.NotNil(t, found)

	tile := &tilescene.Tile{Key: found.Key, Translate: found.Translate}
	x, y := view.TileLocal(tile, vp.LocationPoint(sf))
	assert.GreaterOrEqual(t, x, 0.0)
	assert.Less(t, x, float64(tileSize))
	assert.LessOrEqual(t, y, 0.0)
	assert.Greater(t, y, -float64(tileSize))
}

func TestLocationPointCentre(t *testing.T) {
	vp := newMercatorViewport(tilescene.LatLon{Lat: 10, Lon: 20}, 12, tilescene.Size{X: 640, Y: 480})
	vp.angle = 0.7
	p := vp.LocationPoint(vp.center)
	assert.InDelta(t, 320, p.X, 1e-9)
	assert.InDelta(t, 240, p.Y, 1e-9)
}

func TestSetZoomClamps(t *testing.T) {
	vp := newMercatorViewport(tilescene.LatLon{}, 12, tilescene.Size{X: 1, Y: 1})
	vp.zoomMin, vp.zoomMax = 12, 18
	vp.SetZoom(20)
	assert.Equal(t, 18.0, vp.Zoom())
	vp.SetZoom(3)
	assert.Equal(t, 12.0, vp.Zoom())
}

func TestLoadScript(t *testing.T) {
	s, err := loadScript("")
	require.NoError(t, err)
	assert.Equal(t, [2]float64{1024, 768}, s.Size)
}
