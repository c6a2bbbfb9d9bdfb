package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// FrameInfo summarizes one rendered frame.
type FrameInfo struct {
	Objects   int
	DrawCalls int
	Triangles int
	ViewProj  mgl32.Mat4
}

// HeadlessRenderer walks the scene each frame without a GPU. It validates
// that nothing reachable from the scene has been disposed and keeps the
// statistics of the last frame.
type HeadlessRenderer struct {
	Width, Height int
	Frames        uint64
	Last          FrameInfo
}

func NewHeadlessRenderer() *HeadlessRenderer {
	return &HeadlessRenderer{}
}

func (r *HeadlessRenderer) SetSize(width, height int) {
	r.Width = width
	r.Height = height
}

func (r *HeadlessRenderer) Render(s *Scene, cam *Camera) error {
	info := FrameInfo{ViewProj: cam.ViewProjection()}
	seen := make(map[*Object]struct{})
	var err error
	s.Walk(func(obj *Object, mesh *Mesh, world mgl32.Mat4) {
		if obj.disposed || mesh.Geometry == nil || mesh.Geometry.Disposed() ||
			(mesh.Material != nil && mesh.Material.Disposed()) {
			err = ErrDisposed
			return
		}
		if _, ok := seen[obj]; !ok {
			seen[obj] = struct{}{}
			info.Objects++
		}
		info.DrawCalls++
		info.Triangles += mesh.Geometry.TriangleCount()
	})
	if err != nil {
		return err
	}
	r.Frames++
	r.Last = info
	return nil
}
