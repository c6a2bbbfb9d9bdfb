package tilescene

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/tilescene/scene"
)

// Renderer draws the scene. The headless scene.HeadlessRenderer satisfies
// it; a GPU backend would too.
type Renderer interface {
	SetSize(width, height int)
	Render(s *scene.Scene, cam *scene.Camera) error
}

type RenderOptions struct {
	// Fov in degrees; 0 means 130.
	Fov  float32
	Near float32
	Far  float32
	// Distance is the camera's starting height above the tile plane.
	Distance float32
	// Damping is the fraction of the remaining distance to the pointer
	// target covered per 60 Hz frame. 1 snaps to the target.
	Damping float32
	// YScale amplifies vertical pointer travel.
	YScale float32
	// FixedDamping applies Damping once per frame regardless of elapsed
	// time.
	FixedDamping bool
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Fov == 0 {
		o.Fov = 130
	}
	if o.Near == 0 {
		o.Near = 1
	}
	if o.Far == 0 {
		o.Far = 3000
	}
	if o.Distance == 0 {
		o.Distance = 400
	}
	if o.Damping == 0 {
		o.Damping = 0.01
	}
	if o.YScale == 0 {
		o.YScale = 1
	}
	return o
}

// Time is the frame clock.
type Time struct {
	Time time.Time
	Dt   time.Duration
}

func (t *Time) tick(now time.Time) {
	if !t.Time.IsZero() {
		t.Dt = now.Sub(t.Time)
	}
	t.Time = now
}

type FrameStats struct {
	Frames uint64
	Errors uint64
}

// RenderLoop owns the camera and produces frames independently of tile
// loading.
type RenderLoop struct {
	opts     RenderOptions
	renderer Renderer
	scene    *scene.Scene
	camera   *scene.Camera
	metrics  *Metrics
	logger   Logger

	size   Size
	target mgl32.Vec2
	clock  Time
	stats  FrameStats
}

func NewRenderLoop(s *scene.Scene, r Renderer, m *Metrics, logger Logger, opts RenderOptions) *RenderLoop {
	opts = opts.withDefaults()
	cam := scene.NewPerspectiveCamera(opts.Fov, 1, opts.Near, opts.Far)
	cam.Position = mgl32.Vec3{0, 0, opts.Distance}
	return &RenderLoop{
		opts:     opts,
		renderer: r,
		scene:    s,
		camera:   cam,
		metrics:  m,
		logger:   logger,
	}
}

func (r *RenderLoop) Camera() *scene.Camera { return r.camera }
func (r *RenderLoop) Stats() FrameStats     { return r.stats }

// Resize updates the camera and the renderer before the next frame.
func (r *RenderLoop) Resize(size Size) {
	r.size = size
	if size.X > 0 && size.Y > 0 {
		r.camera.Aspect = float32(size.X / size.Y)
	}
	r.camera.UpdateProjectionMatrix()
	if r.renderer != nil {
		r.renderer.SetSize(int(size.X), int(size.Y))
	}
}

// SetPointer sets the damping target from a pointer position in viewport
// pixels.
func (r *RenderLoop) SetPointer(x, y float64) {
	r.target = mgl32.Vec2{
		float32((x - r.size.X/2) / 2),
		float32((y - r.size.Y/2) / 2),
	}
}

// SetAngle rolls the camera with the map rotation.
func (r *RenderLoop) SetAngle(angle float64) {
	r.camera.Roll = float32(angle)
}

func (r *RenderLoop) alpha() float32 {
	f := r.opts.Damping
	if r.opts.FixedDamping || f >= 1 {
		return math32.Min(f, 1)
	}
	dt := float32(r.clock.Dt.Seconds())
	if dt <= 0 {
		dt = 1.0 / 60
	}
	return 1 - math32.Pow(1-f, dt*60)
}

// Frame advances the camera toward the pointer target and renders.
func (r *RenderLoop) Frame(now time.Time) error {
	r.clock.tick(now)
	a := r.alpha()
	pos := &r.camera.Position
	pos[0] += (r.target[0] - pos[0]) * a
	pos[1] += (-r.target[1]*r.opts.YScale - pos[1]) * a
	r.camera.LookAt(mgl32.Vec3{})

	if r.renderer == nil {
		return nil
	}
	if err := r.renderer.Render(r.scene, r.camera); err != nil {
		r.stats.Errors++
		r.metrics.RenderErrors.Inc()
		r.logger.Errorf("render: %v", err)
		return err
	}
	r.stats.Frames++
	r.metrics.Frames.Inc()
	return nil
}
