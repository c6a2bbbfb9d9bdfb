package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// HSV converts hue, saturation and value in [0,1] to RGB. Hue wraps.
func HSV(h, s, v float32) mgl32.Vec3 {
	h = h - math32.Floor(h)
	s = mgl32.Clamp(s, 0, 1)
	v = mgl32.Clamp(v, 0, 1)

	i := int(math32.Floor(h * 6))
	f := h*6 - float32(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	switch i % 6 {
	case 0:
		return mgl32.Vec3{v, t, p}
	case 1:
		return mgl32.Vec3{q, v, p}
	case 2:
		return mgl32.Vec3{p, v, t}
	case 3:
		return mgl32.Vec3{p, q, v}
	case 4:
		return mgl32.Vec3{t, p, v}
	default:
		return mgl32.Vec3{v, p, q}
	}
}

// HeightRamp maps an extrusion height to a hue that grows with height and
// saturates at maxHeight, so taller buildings never wrap back to red.
func HeightRamp(height, maxHeight float32) mgl32.Vec3 {
	if maxHeight <= 0 {
		return HSV(0, 1, 1)
	}
	hue := mgl32.Clamp(height/maxHeight, 0, 1)
	// Hue 1.0 is red again; stop just short of it.
	const maxHue = 0.85
	return HSV(hue*maxHue, 1, 1)
}
