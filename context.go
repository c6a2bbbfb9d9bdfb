package tilescene

import (
	"github.com/gekko3d/tilescene/scene"
)

// Context is the state shared by one layer's components. It is created by
// NewLayer and only touched from the layer's loop.
type Context struct {
	Logger    Logger
	Metrics   *Metrics
	Loop      *Loop
	Dedup     *Dedup
	Tiles     *Tracker
	Sync      *Synchronizer
	Resources *scene.Resources

	Viewport Viewport
	View     ViewState
}

// Refresh re-reads the viewport into View.
func (c *Context) Refresh() ViewState {
	if c.Viewport != nil {
		c.View = Snapshot(c.Viewport)
	}
	return c.View
}
