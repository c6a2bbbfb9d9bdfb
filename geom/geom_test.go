package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(size float32) []mgl32.Vec2 {
	return []mgl32.Vec2{{0, 0}, {size, 0}, {size, size}, {0, size}, {0, 0}}
}

func triangleArea(r Ring, idx []uint32) float32 {
	var total float32
	for i := 0; i < len(idx); i += 3 {
		a, b, c := r[idx[i]], r[idx[i+1]], r[idx[i+2]]
		total += cross(a, b, c) / 2
	}
	return total
}

func TestCleanDropsClosingPoint(t *testing.T) {
	r := Clean(square(10))
	assert.Len(t, r, 4)
	assert.InDelta(t, 100, r.SignedArea(), 1e-4)
}

func TestTriangulateConcave(t *testing.T) {
	// L-shaped footprint.
	r := Ring{{0, 0}, {4, 0}, {4, 1}, {1, 1}, {1, 4}, {0, 4}}
	idx, err := Triangulate(r)
	require.NoError(t, err)
	assert.Len(t, idx, (len(r)-2)*3)
	assert.InDelta(t, r.SignedArea(), triangleArea(r, idx), 1e-4)
}

func TestValidateRejectsDegenerate(t *testing.T) {
	cases := map[string][]mgl32.Vec2{
		"two points": {{0, 0}, {1, 1}},
		"collinear":  {{0, 0}, {1, 0}, {2, 0}},
		"nan":        {{0, 0}, {float32(math.NaN()), 0}, {1, 1}},
	}
	for name, pts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Extrude(pts, 10)
			assert.ErrorIs(t, err, ErrDegenerateFootprint)
		})
	}
}

func TestExtrudeRejectsNegativeHeight(t *testing.T) {
	_, err := Extrude(square(1), -1)
	assert.ErrorIs(t, err, ErrInvalidHeight)
}

func TestExtrudeSquare(t *testing.T) {
	ex, err := Extrude(square(2), 5)
	require.NoError(t, err)

	// 4 bottom + 4 top + 4 walls * 4 vertices.
	assert.Len(t, ex.Vertices, 24)
	// 2 triangles per cap, 2 per wall.
	assert.Len(t, ex.Indices, (2+2+8)*3)

	var maxZ float32
	for _, v := range ex.Vertices {
		maxZ = max(maxZ, v.Position.Z())
	}
	assert.Equal(t, float32(5), maxZ)
}

func TestExtrudeClockwiseInput(t *testing.T) {
	cw := []mgl32.Vec2{{0, 0}, {0, 3}, {3, 3}, {3, 0}}
	ex, err := Extrude(cw, 1)
	require.NoError(t, err)
	for _, v := range ex.Vertices[8:] {
		// Wall normals point away from the centre.
		centre := mgl32.Vec3{1.5, 1.5, v.Position.Z()}
		assert.Greater(t, v.Normal.Dot(v.Position.Sub(centre)), float32(0))
	}
}

func TestExtrudeDropsCollinearVertices(t *testing.T) {
	pts := []mgl32.Vec2{{0, 0}, {1, 0}, {2, 0}, {2, 2}, {0, 2}}
	ex, err := Extrude(pts, 0)
	require.NoError(t, err)
	assert.Len(t, ex.Vertices, 8)
}

func TestHeightRampIsMonotonicInHue(t *testing.T) {
	low := HeightRamp(10, 606)
	assert.InDelta(t, 1, low.X(), 1e-5)

	top := HeightRamp(606, 606)
	over := HeightRamp(5000, 606)
	assert.Equal(t, top, over)
	assert.NotEqual(t, HSV(0, 1, 1), top)
}

func TestHSVPrimaries(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, HSV(0, 1, 1))
	g := HSV(1.0/3.0, 1, 1)
	assert.InDelta(t, 1, g.Y(), 1e-5)
	assert.InDelta(t, 0, g.X(), 1e-5)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, HSV(0.7, 0, 0.5))
}
