package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is one renderable piece: a geometry drawn with a material.
type Mesh struct {
	Name      string
	Transform Transform
	Geometry  *Geometry
	Material  *Material
}

func NewMesh(name string, geometry *Geometry, material *Material) *Mesh {
	return &Mesh{
		Name:      name,
		Transform: NewTransform(),
		Geometry:  geometry,
		Material:  material,
	}
}

func (m *Mesh) Dispose() {
	if m.Geometry != nil {
		m.Geometry.Dispose()
	}
	if m.Material != nil {
		m.Material.Dispose()
	}
}

// Object groups the meshes built for one tile. It is attached to at most
// one Scene at a time and is unusable once disposed.
type Object struct {
	id        ResourceID
	Name      string
	Transform Transform
	Visible   bool

	meshes   []*Mesh
	scene    *Scene
	disposed bool
}

func NewObject(name string) *Object {
	return &Object{
		id:        makeResourceID(),
		Name:      name,
		Transform: NewTransform(),
		Visible:   true,
	}
}

func (o *Object) ID() ResourceID  { return o.id }
func (o *Object) Disposed() bool  { return o.disposed }
func (o *Object) Attached() bool  { return o.scene != nil }
func (o *Object) Meshes() []*Mesh { return o.meshes }
func (o *Object) Len() int        { return len(o.meshes) }

func (o *Object) Add(m *Mesh) error {
	if o.disposed {
		return ErrDisposed
	}
	o.meshes = append(o.meshes, m)
	return nil
}

// Dispose detaches the object and releases every mesh resource it owns.
func (o *Object) Dispose() {
	if o.disposed {
		return
	}
	if o.scene != nil {
		o.scene.RemoveObject(o)
	}
	for _, m := range o.meshes {
		m.Dispose()
	}
	o.meshes = nil
	o.Visible = false
	o.disposed = true
}

// Scene is the render root. Root carries the global transform applied to
// every object, used for the continuous zoom scale.
type Scene struct {
	Root    Transform
	Objects []*Object
}

func NewScene() *Scene {
	return &Scene{
		Root:    NewTransform(),
		Objects: []*Object{},
	}
}

func (s *Scene) AddObject(obj *Object) error {
	if obj.disposed {
		return ErrDisposed
	}
	if obj.scene == s {
		return nil
	}
	if obj.scene != nil {
		obj.scene.RemoveObject(obj)
	}
	s.Objects = append(s.Objects, obj)
	obj.scene = s
	return nil
}

func (s *Scene) RemoveObject(obj *Object) bool {
	for i, o := range s.Objects {
		if o == obj {
			s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
			obj.scene = nil
			return true
		}
	}
	return false
}

func (s *Scene) Contains(obj *Object) bool {
	return obj.scene == s
}

// Walk visits every mesh of every visible object with its world matrix.
func (s *Scene) Walk(fn func(obj *Object, mesh *Mesh, world mgl32.Mat4)) {
	root := s.Root.Matrix()
	for _, obj := range s.Objects {
		if !obj.Visible {
			continue
		}
		objWorld := root.Mul4(obj.Transform.Matrix())
		for _, m := range obj.meshes {
			fn(obj, m, objWorld.Mul4(m.Transform.Matrix()))
		}
	}
}

// CountMeshes returns the number of meshes named name across all attached
// objects, visible or not.
func (s *Scene) CountMeshes(name string) int {
	n := 0
	for _, obj := range s.Objects {
		for _, m := range obj.meshes {
			if m.Name == name {
				n++
			}
		}
	}
	return n
}
