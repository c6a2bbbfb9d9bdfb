package tilescene

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/gekko3d/tilescene/feature"
)

type TileKey struct {
	Column int
	Row    int
	Zoom   int
}

func (k TileKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Zoom, k.Column, k.Row)
}

func (k TileKey) Compare(o TileKey) int {
	if c := cmp.Compare(k.Zoom, o.Zoom); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Row, o.Row); c != 0 {
		return c
	}
	return cmp.Compare(k.Column, o.Column)
}

// TileView is what the map engine reports for a visible tile. Translate is
// the tile's top-left corner in tile-layer pixels relative to the viewport
// centre, unscaled by the fractional zoom.
type TileView struct {
	Key       TileKey
	Translate Point
}

type BuildStats struct {
	Built   int
	Deduped int
	Failed  int
}

func (s *BuildStats) add(o BuildStats) {
	s.Built += o.Built
	s.Deduped += o.Deduped
	s.Failed += o.Failed
}

// Tile is the tracker's record for one visible tile.
type Tile struct {
	Key       TileKey
	Translate Point
	State     TileState
	Stats     BuildStats

	request *pendingRequest
	// retained holds footprints this tile listed but did not build because
	// another tile owned them; used when ownership is handed over.
	retained map[string]feature.Footprint
}

func newTile(v TileView) *Tile {
	return &Tile{Key: v.Key, Translate: v.Translate, State: TileIdle}
}

func (t *Tile) Pending() bool { return t.request != nil }

func (t *Tile) retain(fp feature.Footprint) {
	if t.retained == nil {
		t.retained = make(map[string]feature.Footprint)
	}
	t.retained[fp.ID] = fp
}

func (t *Tile) takeRetained(id string) (feature.Footprint, bool) {
	fp, ok := t.retained[id]
	if ok {
		delete(t.retained, id)
	}
	return fp, ok
}

func (t *Tile) fire(ev TileEvent) error {
	next, err := Transition(t.State, ev)
	if err != nil {
		return fmt.Errorf("tile %s: %w", t.Key, err)
	}
	t.State = next
	return nil
}

type TileState int

const (
	TileIdle TileState = iota
	TileLoading
	TileReady
	TileCancelled
	TileFailed
)

func (s TileState) String() string {
	switch s {
	case TileIdle:
		return "idle"
	case TileLoading:
		return "loading"
	case TileReady:
		return "ready"
	case TileCancelled:
		return "cancelled"
	case TileFailed:
		return "failed"
	}
	return fmt.Sprintf("TileState(%d)", int(s))
}

type TileEvent int

const (
	EventLoad TileEvent = iota
	EventLoaded
	EventFailed
	EventCancel
)

func (e TileEvent) String() string {
	switch e {
	case EventLoad:
		return "load"
	case EventLoaded:
		return "loaded"
	case EventFailed:
		return "failed"
	case EventCancel:
		return "cancel"
	}
	return fmt.Sprintf("TileEvent(%d)", int(e))
}

var ErrIllegalTransition = errors.New("illegal tile state transition")

var transitions = map[TileState]map[TileEvent]TileState{
	TileIdle: {
		EventLoad:   TileLoading,
		EventCancel: TileCancelled,
	},
	TileLoading: {
		EventLoaded: TileReady,
		EventFailed: TileFailed,
		EventCancel: TileCancelled,
	},
	TileReady: {
		EventCancel: TileCancelled,
	},
	TileFailed: {
		EventCancel: TileCancelled,
	},
}

// Transition returns the state reached from s on ev. Cancelled is terminal.
func Transition(s TileState, ev TileEvent) (TileState, error) {
	if next, ok := transitions[s][ev]; ok {
		return next, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, s)
}
