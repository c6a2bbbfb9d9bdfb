package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera. Fov is the vertical field of view in
// degrees. Roll rotates the up vector about the world Z axis (radians).
type Camera struct {
	Fov    float32
	Aspect float32
	Near   float32
	Far    float32

	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	Roll     float32

	projection mgl32.Mat4
}

func NewPerspectiveCamera(fov, aspect, near, far float32) *Camera {
	c := &Camera{
		Fov:      fov,
		Aspect:   aspect,
		Near:     near,
		Far:      far,
		Position: mgl32.Vec3{0, 0, 1},
		Up:       mgl32.Vec3{0, 1, 0},
	}
	c.UpdateProjectionMatrix()
	return c
}

// UpdateProjectionMatrix must be called after Fov, Aspect, Near or Far change.
func (c *Camera) UpdateProjectionMatrix() {
	aspect := c.Aspect
	if aspect <= 0 || math.IsNaN(float64(aspect)) || math.IsInf(float64(aspect), 0) {
		aspect = 1
	}
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

func (c *Camera) Projection() mgl32.Mat4 {
	return c.projection
}

func (c *Camera) LookAt(target mgl32.Vec3) {
	c.Target = target
}

// RolledUp returns the up vector after applying Roll about Z.
func (c *Camera) RolledUp() mgl32.Vec3 {
	if c.Roll == 0 {
		return c.Up
	}
	return mgl32.HomogRotate3DZ(c.Roll).Mul4x1(c.Up.Vec4(0)).Vec3()
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.RolledUp())
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.projection.Mul4(c.GetViewMatrix())
}
