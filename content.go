package tilescene

import (
	"context"

	"github.com/gekko3d/tilescene/feature"
	"github.com/gekko3d/tilescene/scene"
)

// Content is one kind of per-tile 3D payload. Fetch runs off the loop and
// must not touch layer state; Build runs on the loop.
type Content interface {
	Kind() string
	MetaURL(key TileKey) (string, bool)
	Fetch(ctx context.Context, key TileKey, url string) (any, error)
	Build(c *Context, t *Tile, payload any) (*scene.Object, BuildStats)
}

// handoffBuilder is implemented by content whose buildings can be shared
// between tiles, so a building can be rebuilt in a tile that inherits it.
type handoffBuilder interface {
	BuildFootprint(c *Context, t *Tile, fp feature.Footprint) (*scene.Mesh, error)
}

// addMesh adds mesh to obj, disposing the mesh if obj refuses it.
func addMesh(obj *scene.Object, mesh *scene.Mesh) error {
	if err := obj.Add(mesh); err != nil {
		mesh.Dispose()
		return err
	}
	return nil
}
