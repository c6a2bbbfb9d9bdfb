package tilescene

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gekko3d/tilescene/scene"
)

var ErrNotAttached = errors.New("layer not attached to a viewport")

type LayerOptions struct {
	// Name labels the layer's metrics and log lines.
	Name   string
	Logger Logger
	Debug  bool

	Pipeline PipelineOptions
	Render   RenderOptions
	// AppendOnlyDedup keeps every footprint identifier for the life of the
	// layer instead of evicting those no tracked tile lists.
	AppendOnlyDedup bool
}

// LayerStats is a point-in-time summary of a layer.
type LayerStats struct {
	Tiles   int
	Objects int
	Dedup   int
	Active  int
	Queued  int
	Frames  FrameStats
}

// Layer streams one kind of 3D tile content into a scene that follows a
// map viewport. All methods except Post must run on the layer's loop.
type Layer struct {
	ctx      *Context
	content  Content
	renderer Renderer
	pipeline *Pipeline
	render   *RenderLoop
}

func NewLayer(content Content, renderer Renderer, opts LayerOptions) *Layer {
	if opts.Name == "" {
		opts.Name = content.Kind()
	}
	var logger Logger
	if opts.Logger != nil {
		logger = named(opts.Logger, opts.Name)
	} else {
		logger = NewDefaultLogger(opts.Name, opts.Debug)
	}
	metrics := NewMetrics(opts.Name)
	s := scene.NewScene()

	c := &Context{
		Logger:    logger,
		Metrics:   metrics,
		Loop:      NewLoop(),
		Dedup:     NewDedup(DedupOptions{Evict: !opts.AppendOnlyDedup}),
		Tiles:     NewTracker(),
		Sync:      NewSynchronizer(s, logger),
		Resources: scene.NewResources(),
	}

	ro := opts.Render
	if content.Kind() == "3d" {
		if ro.Distance == 0 {
			ro.Distance = 800
		}
		if ro.Damping == 0 {
			ro.Damping = 1
		}
	} else if ro.YScale == 0 {
		ro.YScale = 4
	}

	l := &Layer{
		ctx:      c,
		content:  content,
		renderer: renderer,
		pipeline: NewPipeline(c, content, opts.Pipeline),
		render:   NewRenderLoop(s, renderer, metrics, logger, ro),
	}
	l.pipeline.Progress().OnComplete(func() {
		if c.Viewport != nil {
			_ = l.Move()
		}
	})
	return l
}

func (l *Layer) Context() *Context              { return l.ctx }
func (l *Layer) Scene() *scene.Scene            { return l.ctx.Sync.Scene() }
func (l *Layer) Camera() *scene.Camera          { return l.render.Camera() }
func (l *Layer) Registry() *prometheus.Registry { return l.ctx.Metrics.Registry }

func (l *Layer) OnProgress(fn func(ProgressEvent)) { l.pipeline.Progress().OnProgress(fn) }
func (l *Layer) OnComplete(fn func())              { l.pipeline.Progress().OnComplete(fn) }

// Attach binds the layer to a viewport, hands the renderer to hosts that
// display surfaces, and takes the initial size and position.
func (l *Layer) Attach(vp Viewport) error {
	if vp == nil {
		return ErrNotAttached
	}
	l.ctx.Viewport = vp
	if host, ok := vp.(SurfaceHost); ok && l.renderer != nil {
		host.InsertSurface(l.renderer)
	}
	if err := l.Resize(); err != nil {
		return err
	}
	return l.Move()
}

// Move re-reads the viewport and re-places every tile object.
func (l *Layer) Move() error {
	if l.ctx.Viewport == nil {
		return ErrNotAttached
	}
	view := l.ctx.Refresh()
	l.render.SetAngle(view.Angle)
	l.ctx.Sync.Sync(view, l.ctx.Tiles.Tiles())
	return nil
}

func (l *Layer) Resize() error {
	if l.ctx.Viewport == nil {
		return ErrNotAttached
	}
	view := l.ctx.Refresh()
	l.render.Resize(view.Size)
	return nil
}

// SetVisibleTiles replaces the visible tile set: exited tiles are
// unloaded, present ones re-placed and entered ones loaded.
func (l *Layer) SetVisibleTiles(views []TileView) error {
	if l.ctx.Viewport == nil {
		return ErrNotAttached
	}
	// Handoffs rebuild buildings during Unload; they must project at the
	// current zoom.
	l.ctx.Refresh()
	entered, exited := l.ctx.Tiles.Update(views)
	for _, t := range exited {
		l.pipeline.Unload(t)
	}
	l.ctx.Metrics.Tiles.Set(float64(l.ctx.Tiles.Len()))
	if err := l.Move(); err != nil {
		return err
	}
	return l.load(entered)
}

// AddTile tracks and loads a single tile. Adding a tracked tile only
// refreshes its translation.
func (l *Layer) AddTile(v TileView) error {
	if l.ctx.Viewport == nil {
		return ErrNotAttached
	}
	t := l.ctx.Tiles.Add(v)
	l.ctx.Metrics.Tiles.Set(float64(l.ctx.Tiles.Len()))
	if t == nil {
		return nil
	}
	l.ctx.Refresh()
	return l.load([]*Tile{t})
}

// RemoveTile unloads a tracked tile. Unknown keys are ignored.
func (l *Layer) RemoveTile(key TileKey) {
	t := l.ctx.Tiles.Remove(key)
	if t == nil {
		return
	}
	l.ctx.Refresh()
	l.pipeline.Unload(t)
	l.ctx.Metrics.Tiles.Set(float64(l.ctx.Tiles.Len()))
}

func (l *Layer) load(tiles []*Tile) error {
	var errs []error
	for _, t := range tiles {
		if err := l.pipeline.Load(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Layer) SetPointer(x, y float64) { l.render.SetPointer(x, y) }

func (l *Layer) Frame(now time.Time) error { return l.render.Frame(now) }

// Post schedules fn on the layer's loop. Safe for concurrent use.
func (l *Layer) Post(fn func()) { l.ctx.Loop.Post(fn) }

// RunPending runs callbacks posted to the loop so far.
func (l *Layer) RunPending() int { return l.ctx.Loop.RunPending() }

// Run drives the layer's loop until ctx is done, rendering a frame per
// tick.
func (l *Layer) Run(ctx context.Context, frames <-chan time.Time) error {
	defer l.pipeline.Close()
	return l.ctx.Loop.Run(ctx, frames, func(now time.Time) {
		_ = l.Frame(now)
	})
}

func (l *Layer) Stats() LayerStats {
	return LayerStats{
		Tiles:   l.ctx.Tiles.Len(),
		Objects: l.ctx.Sync.Len(),
		Dedup:   l.ctx.Dedup.Len(),
		Active:  l.pipeline.Active(),
		Queued:  l.pipeline.Queued(),
		Frames:  l.render.Stats(),
	}
}

// Close cancels outstanding fetches and releases every tile.
func (l *Layer) Close() {
	l.pipeline.Close()
	for _, t := range l.ctx.Tiles.Tiles() {
		l.RemoveTile(t.Key)
	}
}
