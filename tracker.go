package tilescene

import (
	"slices"

	"github.com/samber/lo"
)

// Tracker keeps the set of tiles the map engine currently reports and
// turns successive reports into enter and exit events.
type Tracker struct {
	tiles map[TileKey]*Tile
}

func NewTracker() *Tracker {
	return &Tracker{tiles: make(map[TileKey]*Tile)}
}

// Update diffs views against the tracked set. Present tiles get their
// translation refreshed; delivering the same set twice yields no events.
func (t *Tracker) Update(views []TileView) (entered, exited []*Tile) {
	next := lo.SliceToMap(views, func(v TileView) (TileKey, TileView) {
		return v.Key, v
	})

	for key, tile := range t.tiles {
		if _, ok := next[key]; !ok {
			exited = append(exited, tile)
			delete(t.tiles, key)
		}
	}
	for _, v := range views {
		if tile, ok := t.tiles[v.Key]; ok {
			tile.Translate = v.Translate
			continue
		}
		tile := newTile(v)
		t.tiles[v.Key] = tile
		entered = append(entered, tile)
	}

	sortTiles(entered)
	sortTiles(exited)
	return entered, exited
}

// Add tracks a single tile. It returns nil when the key is already present.
func (t *Tracker) Add(v TileView) *Tile {
	if tile, ok := t.tiles[v.Key]; ok {
		tile.Translate = v.Translate
		return nil
	}
	tile := newTile(v)
	t.tiles[v.Key] = tile
	return tile
}

// Remove stops tracking key and returns its tile, or nil if unknown.
func (t *Tracker) Remove(key TileKey) *Tile {
	tile, ok := t.tiles[key]
	if !ok {
		return nil
	}
	delete(t.tiles, key)
	return tile
}

func (t *Tracker) Get(key TileKey) (*Tile, bool) {
	tile, ok := t.tiles[key]
	return tile, ok
}

func (t *Tracker) Len() int { return len(t.tiles) }

// Tiles returns the tracked tiles ordered by key.
func (t *Tracker) Tiles() []*Tile {
	out := lo.Values(t.tiles)
	sortTiles(out)
	return out
}

func sortTiles(tiles []*Tile) {
	slices.SortFunc(tiles, func(a, b *Tile) int { return a.Key.Compare(b.Key) })
}
