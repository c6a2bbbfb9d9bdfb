package geom

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/tilescene/scene"
)

// Extrusion is a closed prism built from a ring: a bottom cap at z=0, a
// top cap at z=depth and one quad per edge.
type Extrusion struct {
	Vertices []scene.Vertex
	Indices  []uint32
}

// Extrude validates the outline, triangulates it and sweeps it along +Z.
// A zero depth yields the caps only.
func Extrude(points []mgl32.Vec2, depth float32) (Extrusion, error) {
	if depth < 0 || math32.IsNaN(depth) || math32.IsInf(depth, 0) {
		return Extrusion{}, fmt.Errorf("%w: %v", ErrInvalidHeight, depth)
	}
	ring := Clean(points).DropCollinear()
	if err := ring.Validate(); err != nil {
		return Extrusion{}, err
	}
	ring = ring.CCW()
	capIdx, err := Triangulate(ring)
	if err != nil {
		return Extrusion{}, err
	}

	n := len(ring)
	var ex Extrusion
	ex.Vertices = make([]scene.Vertex, 0, 2*n+4*n)
	ex.Indices = make([]uint32, 0, 2*len(capIdx)+6*n)

	// Bottom cap faces down, so its winding is reversed.
	for _, p := range ring {
		ex.Vertices = append(ex.Vertices, scene.Vertex{
			Position: mgl32.Vec3{p.X(), p.Y(), 0},
			Normal:   mgl32.Vec3{0, 0, -1},
		})
	}
	for i := 0; i < len(capIdx); i += 3 {
		ex.Indices = append(ex.Indices, capIdx[i], capIdx[i+2], capIdx[i+1])
	}

	top := uint32(len(ex.Vertices))
	for _, p := range ring {
		ex.Vertices = append(ex.Vertices, scene.Vertex{
			Position: mgl32.Vec3{p.X(), p.Y(), depth},
			Normal:   mgl32.Vec3{0, 0, 1},
		})
	}
	for _, idx := range capIdx {
		ex.Indices = append(ex.Indices, top+idx)
	}

	if depth == 0 {
		return ex, nil
	}

	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		edge := b.Sub(a)
		normal := mgl32.Vec3{edge.Y(), -edge.X(), 0}.Normalize()
		base := uint32(len(ex.Vertices))
		ex.Vertices = append(ex.Vertices,
			scene.Vertex{Position: mgl32.Vec3{a.X(), a.Y(), 0}, Normal: normal},
			scene.Vertex{Position: mgl32.Vec3{b.X(), b.Y(), 0}, Normal: normal},
			scene.Vertex{Position: mgl32.Vec3{b.X(), b.Y(), depth}, Normal: normal},
			scene.Vertex{Position: mgl32.Vec3{a.X(), a.Y(), depth}, Normal: normal},
		)
		ex.Indices = append(ex.Indices,
			base, base+1, base+2,
			base, base+2, base+3,
		)
	}
	return ex, nil
}
