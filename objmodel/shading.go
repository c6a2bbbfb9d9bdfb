package objmodel

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/tilescene/geom"
)

// HeightColorScale is the vertex height at which height coloring saturates.
const HeightColorScale = 200

// ApplyHeightColors writes a per-vertex color whose hue, saturation and
// value all grow with the vertex height.
func (p *Piece) ApplyHeightColors() {
	for i := range p.Vertices {
		c := p.Vertices[i].Position.Z() / HeightColorScale
		p.Vertices[i].Color = geom.HSV(c, c, c)
	}
}

// NormalizeUVs replaces texture coordinates with a planar projection of the
// piece's XY bounding box onto the unit square.
func (p *Piece) NormalizeUVs() {
	if len(p.Vertices) == 0 {
		return
	}
	minV := mgl32.Vec2{p.Vertices[0].Position.X(), p.Vertices[0].Position.Y()}
	maxV := minV
	for _, v := range p.Vertices[1:] {
		minV = mgl32.Vec2{min(minV.X(), v.Position.X()), min(minV.Y(), v.Position.Y())}
		maxV = mgl32.Vec2{max(maxV.X(), v.Position.X()), max(maxV.Y(), v.Position.Y())}
	}
	span := maxV.Sub(minV)
	for i := range p.Vertices {
		pos := p.Vertices[i].Position
		var uv mgl32.Vec2
		if span.X() > 0 {
			uv[0] = (pos.X() - minV.X()) / span.X()
		}
		if span.Y() > 0 {
			uv[1] = (pos.Y() - minV.Y()) / span.Y()
		}
		p.Vertices[i].UV = uv
	}
}
