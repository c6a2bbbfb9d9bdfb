package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMesh(res *Resources, name string) *Mesh {
	geo := res.NewGeometry([]Vertex{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{0, 1, 2}},
	}, []uint32{0, 1, 2})
	mat := res.NewMaterial(MaterialParams{Color: mgl32.Vec3{1, 0, 0}})
	return NewMesh(name, geo, mat)
}

func TestObjectDisposeReleasesResources(t *testing.T) {
	res := NewResources()
	s := NewScene()

	obj := NewObject("15/1/2")
	require.NoError(t, obj.Add(newTestMesh(res, "a")))
	require.NoError(t, obj.Add(newTestMesh(res, "b")))
	require.NoError(t, s.AddObject(obj))

	g, m, _ := res.Live()
	assert.Equal(t, 2, g)
	assert.Equal(t, 2, m)

	obj.Dispose()

	assert.False(t, s.Contains(obj))
	assert.Empty(t, s.Objects)
	g, m, tex := res.Live()
	assert.Zero(t, g+m+tex)

	assert.ErrorIs(t, s.AddObject(obj), ErrDisposed)
	assert.ErrorIs(t, obj.Add(newTestMesh(res, "c")), ErrDisposed)
}

func TestMaterialDisposeReleasesTexture(t *testing.T) {
	res := NewResources()
	tex := res.NewTexture(nil)
	mat := res.NewMaterial(MaterialParams{Map: tex})

	mat.Dispose()

	assert.True(t, tex.Disposed())
	_, _, n := res.Live()
	assert.Zero(t, n)
}

func TestSceneAddIsIdempotent(t *testing.T) {
	s := NewScene()
	obj := NewObject("x")
	require.NoError(t, s.AddObject(obj))
	require.NoError(t, s.AddObject(obj))
	assert.Len(t, s.Objects, 1)

	assert.True(t, s.RemoveObject(obj))
	assert.False(t, s.RemoveObject(obj))
	assert.False(t, obj.Attached())
}

func TestWalkSkipsHiddenAndAppliesRootScale(t *testing.T) {
	res := NewResources()
	s := NewScene()
	s.Root.SetUniformScale(2)

	visible := NewObject("visible")
	visible.Transform.Position = mgl32.Vec3{10, 0, 0}
	require.NoError(t, visible.Add(newTestMesh(res, "v")))

	hidden := NewObject("hidden")
	hidden.Visible = false
	require.NoError(t, hidden.Add(newTestMesh(res, "h")))

	require.NoError(t, s.AddObject(visible))
	require.NoError(t, s.AddObject(hidden))

	var names []string
	s.Walk(func(obj *Object, mesh *Mesh, world mgl32.Mat4) {
		names = append(names, mesh.Name)
		p := world.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
		assert.InDelta(t, 20, p.X(), 1e-4)
	})
	assert.Equal(t, []string{"v"}, names)
	assert.Equal(t, 1, s.CountMeshes("h"))
}

func TestTransformComposition(t *testing.T) {
	tr := NewTransform()
	tr.Position = mgl32.Vec3{10, 20, 30}
	tr.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	tr.Scale = mgl32.Vec3{2, 3, 4}

	cases := []struct {
		local, want mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{10, 20, 30}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{10, 22, 30}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{7, 20, 30}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{10, 20, 34}},
	}
	m := tr.Matrix()
	for _, c := range cases {
		got := mgl32.TransformCoordinate(c.local, m)
		for i := range got {
			assert.InDelta(t, c.want[i], got[i], 1e-4, "local %v axis %d", c.local, i)
		}
	}
}
