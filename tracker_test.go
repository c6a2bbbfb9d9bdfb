package tilescene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(tiles []*Tile) []TileKey {
	out := make([]TileKey, len(tiles))
	for i, t := range tiles {
		out[i] = t.Key
	}
	return out
}

func TestTrackerSameSetTwiceIsQuiet(t *testing.T) {
	tr := NewTracker()
	views := []TileView{view(2, 1, 10), view(1, 1, 10)}

	entered, exited := tr.Update(views)
	assert.Equal(t, []TileKey{{1, 1, 10}, {2, 1, 10}}, keys(entered))
	assert.Empty(t, exited)

	entered, exited = tr.Update(views)
	assert.Empty(t, entered)
	assert.Empty(t, exited)
	assert.Equal(t, 2, tr.Len())
}

func TestTrackerDiff(t *testing.T) {
	tr := NewTracker()
	tr.Update([]TileView{view(1, 1, 10), view(2, 1, 10)})

	moved := view(2, 1, 10)
	moved.Translate = Point{X: 7, Y: 9}
	entered, exited := tr.Update([]TileView{moved, view(3, 1, 10)})

	assert.Equal(t, []TileKey{{3, 1, 10}}, keys(entered))
	assert.Equal(t, []TileKey{{1, 1, 10}}, keys(exited))

	tile, ok := tr.Get(moved.Key)
	require.True(t, ok)
	assert.Equal(t, Point{X: 7, Y: 9}, tile.Translate)
	assert.Equal(t, []TileKey{{2, 1, 10}, {3, 1, 10}}, keys(tr.Tiles()))
}

func TestTrackerAddRemove(t *testing.T) {
	tr := NewTracker()
	v := view(1, 1, 10)

	require.NotNil(t, tr.Add(v))
	assert.Nil(t, tr.Add(v))
	assert.Equal(t, 1, tr.Len())

	assert.NotNil(t, tr.Remove(v.Key))
	assert.Nil(t, tr.Remove(v.Key))
	assert.Equal(t, 0, tr.Len())
}

func TestTileTransitions(t *testing.T) {
	tests := []struct {
		from TileState
		ev   TileEvent
		to   TileState
		ok   bool
	}{
		{TileIdle, EventLoad, TileLoading, true},
		{TileIdle, EventCancel, TileCancelled, true},
		{TileLoading, EventLoaded, TileReady, true},
		{TileLoading, EventFailed, TileFailed, true},
		{TileLoading, EventCancel, TileCancelled, true},
		{TileReady, EventCancel, TileCancelled, true},
		{TileFailed, EventCancel, TileCancelled, true},
		{TileCancelled, EventLoaded, TileCancelled, false},
		{TileCancelled, EventLoad, TileCancelled, false},
		{TileReady, EventLoad, TileReady, false},
		{TileIdle, EventLoaded, TileIdle, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.ev.String(), func(t *testing.T) {
			got, err := Transition(tt.from, tt.ev)
			assert.Equal(t, tt.to, got)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			}
		})
	}
}

func TestTileKeyString(t *testing.T) {
	assert.Equal(t, "15/5241/12663", TileKey{Column: 5241, Row: 12663, Zoom: 15}.String())
}
