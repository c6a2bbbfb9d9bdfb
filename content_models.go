package tilescene

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/gekko3d/tilescene/objmodel"
	"github.com/gekko3d/tilescene/scene"
)

type ModelOptions struct {
	URL Template
	// Texture, when set, gives the one texture every model of a tile
	// uses. Otherwise model i uses the metadata URL with suffix "_i.jpg".
	Texture      Template
	Wireframe    bool
	HeightColors bool
	Normalize    bool
	// Parallelism bounds concurrent asset fetches per tile; 0 means 4.
	Parallelism int
}

// Models streams pre-built textured tile models. Each tile's metadata is a
// JSON array with one entry per model; entry i lives at the metadata URL
// with suffix "_i.obj". Models are per tile and bypass the dedup index.
type Models struct {
	opts   ModelOptions
	fetch  Fetcher
	assets *AssetCache
}

func NewModels(fetcher Fetcher, assets *AssetCache, opts ModelOptions) *Models {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	return &Models{opts: opts, fetch: fetcher, assets: assets}
}

func (m *Models) Kind() string { return "3d" }

func (m *Models) MetaURL(key TileKey) (string, bool) {
	return m.opts.URL.Expand(key)
}

type modelResult struct {
	index int
	asset *ModelAsset
	err   error
}

func (m *Models) Fetch(ctx context.Context, key TileKey, url string) (any, error) {
	data, err := m.fetch.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	var manifest []json.RawMessage
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("tile %s: decode manifest: %w", key, err)
	}

	tileTexture, shared := "", false
	if !m.opts.Texture.IsZero() {
		tileTexture, shared = m.opts.Texture.Expand(key)
	}

	results := make([]modelResult, len(manifest))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Parallelism)
	for i := range manifest {
		i := i
		g.Go(func() error {
			texURL := ""
			switch {
			case m.opts.HeightColors:
			case shared:
				texURL = tileTexture
			default:
				texURL = Suffix(url, i, "jpg")
			}
			asset, err := m.assets.Load(gctx, Suffix(url, i, "obj"), texURL)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = modelResult{index: i, asset: asset, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (m *Models) Build(c *Context, t *Tile, payload any) (*scene.Object, BuildStats) {
	var stats BuildStats
	obj := scene.NewObject(t.Key.String())
	results, _ := payload.([]modelResult)

	for _, r := range results {
		id := fmt.Sprintf("%s_%d", t.Key, r.index)
		if r.err != nil {
			stats.Failed++
			c.Logger.Debugf("tile %s: skip model %d: %v", t.Key, r.index, r.err)
			continue
		}

		var tex *scene.Texture
		if r.asset.Texture != nil && !m.opts.HeightColors {
			tex = c.Resources.NewTexture(r.asset.Texture)
		}
		for _, src := range r.asset.Pieces {
			piece := objmodel.Piece{
				Name:     src.Name,
				Vertices: append([]scene.Vertex(nil), src.Vertices...),
				Indices:  src.Indices,
			}
			params := scene.MaterialParams{
				Opacity:   1,
				Antialias: true,
				Wireframe: m.opts.Wireframe,
			}
			if m.opts.HeightColors {
				piece.ApplyHeightColors()
				params.VertexColors = true
			} else {
				if m.opts.Normalize {
					piece.NormalizeUVs()
				}
				params.Map = tex
			}
			geo := c.Resources.NewGeometry(piece.Vertices, piece.Indices)
			if err := addMesh(obj, scene.NewMesh(id, geo, c.Resources.NewMaterial(params))); err != nil {
				c.Logger.Debugf("tile %s: attach model %d: %v", t.Key, r.index, err)
			}
		}
		stats.Built++
	}
	return obj, stats
}
