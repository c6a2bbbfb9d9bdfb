// Package geom turns 2D building outlines into extruded triangle meshes.
package geom

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrDegenerateFootprint = errors.New("geom: degenerate footprint")
	ErrInvalidHeight       = errors.New("geom: invalid extrusion height")
)

// minArea is the smallest outline area, in square pixels, that is still
// worth extruding.
const minArea = 1e-3

// Ring is a closed outline without the repeated closing vertex.
type Ring []mgl32.Vec2

// Clean drops repeated consecutive points, including the GeoJSON closing
// point.
func Clean(points []mgl32.Vec2) Ring {
	out := make(Ring, 0, len(points))
	for _, p := range points {
		if len(out) > 0 && out[len(out)-1].ApproxEqual(p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0].ApproxEqual(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// DropCollinear removes vertices lying on the segment between their
// neighbours.
func (r Ring) DropCollinear() Ring {
	out := append(Ring(nil), r...)
	for i := 0; len(out) > 3 && i < len(out); {
		prev := out[(i+len(out)-1)%len(out)]
		next := out[(i+1)%len(out)]
		if math32.Abs(cross(prev, out[i], next)) < minArea {
			out = append(out[:i], out[i+1:]...)
			continue
		}
		i++
	}
	return out
}

// SignedArea is positive for counter-clockwise rings.
func (r Ring) SignedArea() float32 {
	var a float32
	n := len(r)
	for i := 0; i < n; i++ {
		p, q := r[i], r[(i+1)%n]
		a += p.X()*q.Y() - q.X()*p.Y()
	}
	return a / 2
}

// Validate reports whether the ring can be triangulated.
func (r Ring) Validate() error {
	if len(r) < 3 {
		return fmt.Errorf("%w: %d distinct points", ErrDegenerateFootprint, len(r))
	}
	for i, p := range r {
		for _, c := range p {
			if math32.IsNaN(c) || math32.IsInf(c, 0) {
				return fmt.Errorf("%w: non-finite coordinate at %d", ErrDegenerateFootprint, i)
			}
		}
	}
	if math32.Abs(r.SignedArea()) < minArea {
		return fmt.Errorf("%w: zero area", ErrDegenerateFootprint)
	}
	return nil
}

// CCW returns the ring in counter-clockwise order.
func (r Ring) CCW() Ring {
	if r.SignedArea() >= 0 {
		return r
	}
	out := make(Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// Triangulate ear-clips a simple counter-clockwise ring and returns indices
// into it.
func Triangulate(r Ring) ([]uint32, error) {
	n := len(r)
	if n < 3 {
		return nil, ErrDegenerateFootprint
	}
	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}
	indices := make([]uint32, 0, (n-2)*3)

	guard := 0
	for len(remaining) > 3 {
		if guard > len(remaining) {
			return nil, fmt.Errorf("%w: self-intersecting outline", ErrDegenerateFootprint)
		}
		clipped := false
		for i := 0; i < len(remaining); i++ {
			ip := remaining[(i+len(remaining)-1)%len(remaining)]
			ic := remaining[i]
			in := remaining[(i+1)%len(remaining)]
			if !isEar(r, remaining, ip, ic, in) {
				continue
			}
			indices = append(indices, uint32(ip), uint32(ic), uint32(in))
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if clipped {
			guard = 0
		} else {
			guard = len(remaining) + 1
		}
	}
	indices = append(indices, uint32(remaining[0]), uint32(remaining[1]), uint32(remaining[2]))
	return indices, nil
}

func cross(o, a, b mgl32.Vec2) float32 {
	return (a.X()-o.X())*(b.Y()-o.Y()) - (a.Y()-o.Y())*(b.X()-o.X())
}

func isEar(r Ring, remaining []int, ip, ic, in int) bool {
	a, b, c := r[ip], r[ic], r[in]
	if cross(a, b, c) <= 0 {
		return false
	}
	for _, j := range remaining {
		if j == ip || j == ic || j == in {
			continue
		}
		if pointInTriangle(r[j], a, b, c) {
			return false
		}
	}
	return true
}

func pointInTriangle(p, a, b, c mgl32.Vec2) bool {
	d1 := cross(a, b, p)
	d2 := cross(b, c, p)
	d3 := cross(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}
