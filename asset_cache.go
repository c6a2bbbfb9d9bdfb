package tilescene

import (
	"context"
	"fmt"
	"image"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gekko3d/tilescene/objmodel"
)

// ModelAsset is a decoded tile model and its texture. Cached assets are
// shared, so builders copy pieces before modifying them.
type ModelAsset struct {
	Pieces  []objmodel.Piece
	Texture *image.RGBA
}

// AssetCache keeps recently decoded model assets keyed by their URLs so a
// tile that re-enters the viewport does not refetch them. Safe for
// concurrent use.
type AssetCache struct {
	fetcher Fetcher
	cache   *lru.Cache[string, *ModelAsset]
}

func NewAssetCache(fetcher Fetcher, size int) (*AssetCache, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, *ModelAsset](size)
	if err != nil {
		return nil, fmt.Errorf("asset cache: %w", err)
	}
	return &AssetCache{fetcher: fetcher, cache: c}, nil
}

func (a *AssetCache) Len() int { return a.cache.Len() }

// Load returns the asset for an OBJ URL and optional texture URL.
func (a *AssetCache) Load(ctx context.Context, objURL, textureURL string) (*ModelAsset, error) {
	key := objURL + "|" + textureURL
	if asset, ok := a.cache.Get(key); ok {
		return asset, nil
	}

	data, err := a.fetcher.Fetch(ctx, objURL)
	if err != nil {
		return nil, err
	}
	pieces, err := objmodel.ParseOBJ(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", objURL, err)
	}
	asset := &ModelAsset{Pieces: pieces}

	if textureURL != "" {
		data, err := a.fetcher.Fetch(ctx, textureURL)
		if err != nil {
			return nil, err
		}
		asset.Texture, err = objmodel.DecodeTexture(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", textureURL, err)
		}
	}

	a.cache.Add(key, asset)
	return asset, nil
}
