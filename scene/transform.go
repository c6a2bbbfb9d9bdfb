package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform places a node relative to its parent: scale first, then
// rotation, then translation.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

func (t Transform) Matrix() mgl32.Mat4 {
	m := t.Rotation.Mat4()
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			m[col*4+row] *= t.Scale[col]
		}
	}
	m[12], m[13], m[14] = t.Position[0], t.Position[1], t.Position[2]
	return m
}

func (t *Transform) SetUniformScale(s float32) {
	t.Scale = mgl32.Vec3{s, s, s}
}
