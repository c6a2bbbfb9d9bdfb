package tilescene

import (
	"slices"

	"github.com/samber/lo"
)

type DedupOptions struct {
	// Evict forgets identifiers once no tracked tile references them.
	// Without it the index only grows.
	Evict bool
}

type dedupEntry struct {
	owner TileKey
	refs  map[TileKey]struct{}
}

// Handoff moves ownership of a building to a tile that still lists it.
type Handoff struct {
	ID string
	To TileKey
}

// Dedup records which footprint identifiers already have a mesh in the
// scene and which tile owns that mesh. Loop goroutine only.
type Dedup struct {
	evict   bool
	entries map[string]*dedupEntry
	byTile  map[TileKey]map[string]struct{}
}

func NewDedup(opts DedupOptions) *Dedup {
	return &Dedup{
		evict:   opts.Evict,
		entries: make(map[string]*dedupEntry),
		byTile:  make(map[TileKey]map[string]struct{}),
	}
}

func (d *Dedup) Seen(id string) bool {
	_, ok := d.entries[id]
	return ok
}

// Mark registers id as built by owner.
func (d *Dedup) Mark(id string, owner TileKey) {
	if _, ok := d.entries[id]; ok {
		return
	}
	d.entries[id] = &dedupEntry{owner: owner, refs: map[TileKey]struct{}{owner: {}}}
	d.link(owner, id)
}

// Forget removes id regardless of references, for builds that failed after
// Mark.
func (d *Dedup) Forget(id string) {
	e, ok := d.entries[id]
	if !ok {
		return
	}
	for key := range e.refs {
		d.unlink(key, id)
	}
	delete(d.entries, id)
}

// Reference records that tile lists id without owning its mesh.
func (d *Dedup) Reference(id string, tile TileKey) {
	e, ok := d.entries[id]
	if !ok {
		return
	}
	e.refs[tile] = struct{}{}
	d.link(tile, id)
}

func (d *Dedup) Owner(id string) (TileKey, bool) {
	e, ok := d.entries[id]
	if !ok {
		return TileKey{}, false
	}
	return e.owner, true
}

func (d *Dedup) Len() int { return len(d.entries) }

// ReleaseTile drops the references held by tile. Identifiers it owned pass
// to the lowest remaining referencing tile, returned as handoffs; the rest
// are forgotten. Without eviction nothing changes.
func (d *Dedup) ReleaseTile(tile TileKey) []Handoff {
	if !d.evict {
		return nil
	}
	ids := lo.Keys(d.byTile[tile])
	slices.Sort(ids)
	delete(d.byTile, tile)

	var handoffs []Handoff
	for _, id := range ids {
		e := d.entries[id]
		delete(e.refs, tile)
		if e.owner != tile {
			continue
		}
		if len(e.refs) == 0 {
			delete(d.entries, id)
			continue
		}
		keys := lo.Keys(e.refs)
		slices.SortFunc(keys, TileKey.Compare)
		e.owner = keys[0]
		handoffs = append(handoffs, Handoff{ID: id, To: e.owner})
	}
	return handoffs
}

func (d *Dedup) link(tile TileKey, id string) {
	set, ok := d.byTile[tile]
	if !ok {
		set = make(map[string]struct{})
		d.byTile[tile] = set
	}
	set[id] = struct{}{}
}

func (d *Dedup) unlink(tile TileKey, id string) {
	if set, ok := d.byTile[tile]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(d.byTile, tile)
		}
	}
}
