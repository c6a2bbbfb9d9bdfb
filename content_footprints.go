package tilescene

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/tilescene/feature"
	"github.com/gekko3d/tilescene/geom"
	"github.com/gekko3d/tilescene/scene"
)

type FootprintOptions struct {
	URL       Template
	Wireframe bool
	// Opacity of building materials; 0 means 0.8.
	Opacity float32
	// ColorHeight is the extrusion height at which the color ramp tops out;
	// 0 means 606.
	ColorHeight float32
}

// Footprints extrudes GeoJSON building footprints listed per tile.
type Footprints struct {
	opts    FootprintOptions
	fetcher Fetcher
}

func NewFootprints(fetcher Fetcher, opts FootprintOptions) *Footprints {
	if opts.Opacity == 0 {
		opts.Opacity = 0.8
	}
	if opts.ColorHeight == 0 {
		opts.ColorHeight = 606
	}
	return &Footprints{opts: opts, fetcher: fetcher}
}

func (f *Footprints) Kind() string { return "footprints" }

func (f *Footprints) MetaURL(key TileKey) (string, bool) {
	return f.opts.URL.Expand(key)
}

func (f *Footprints) Fetch(ctx context.Context, key TileKey, url string) (any, error) {
	data, err := f.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	records, err := feature.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", key, err)
	}
	return records, nil
}

func (f *Footprints) Build(c *Context, t *Tile, payload any) (*scene.Object, BuildStats) {
	var stats BuildStats
	obj := scene.NewObject(t.Key.String())
	records, _ := payload.([]feature.Record)

	for _, rec := range records {
		if rec.Err != nil {
			stats.Failed++
			c.Logger.Debugf("tile %s: skip feature: %v", t.Key, rec.Err)
			continue
		}
		fp := rec.Footprint
		if c.Dedup.Seen(fp.ID) {
			c.Dedup.Reference(fp.ID, t.Key)
			t.retain(fp)
			stats.Deduped++
			continue
		}

		c.Dedup.Mark(fp.ID, t.Key)
		mesh, err := f.BuildFootprint(c, t, fp)
		if err != nil {
			c.Dedup.Forget(fp.ID)
			stats.Failed++
			c.Logger.Debugf("tile %s: skip building %s: %v", t.Key, fp.ID, err)
			continue
		}
		if err := addMesh(obj, mesh); err != nil {
			c.Dedup.Forget(fp.ID)
			stats.Failed++
			c.Logger.Debugf("tile %s: attach building %s: %v", t.Key, fp.ID, err)
			continue
		}
		stats.Built++
	}
	return obj, stats
}

// BuildFootprint projects the footprint through the current viewport into
// the tile's local frame and extrudes it.
func (f *Footprints) BuildFootprint(c *Context, t *Tile, fp feature.Footprint) (*scene.Mesh, error) {
	points := make([]mgl32.Vec2, len(fp.Ring))
	for i, ll := range fp.Ring {
		p := c.Viewport.LocationPoint(LatLon{Lat: ll[1], Lon: ll[0]})
		x, y := c.View.TileLocal(t, p)
		points[i] = mgl32.Vec2{float32(x), float32(y)}
	}

	height := float32(fp.Height())
	ex, err := geom.Extrude(points, height)
	if err != nil {
		return nil, err
	}

	geo := c.Resources.NewGeometry(ex.Vertices, ex.Indices)
	mat := c.Resources.NewMaterial(scene.MaterialParams{
		Color:       geom.HeightRamp(height, f.opts.ColorHeight),
		Opacity:     f.opts.Opacity,
		Transparent: true,
		Antialias:   true,
		Wireframe:   f.opts.Wireframe,
	})
	mesh := scene.NewMesh(fp.ID, geo, mat)
	mesh.Transform.Position = mgl32.Vec3{0, 0, float32(fp.MinHeight)}
	return mesh, nil
}
