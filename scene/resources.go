package scene

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// ErrDisposed is returned when a disposed object or resource is used again.
var ErrDisposed = errors.New("scene: use of disposed resource")

type ResourceID string

func makeResourceID() ResourceID {
	return ResourceID(uuid.NewString())
}

// Resources tracks every GPU-side allocation made for the scene so that
// disposal can be verified. It is owned by a single goroutine.
type Resources struct {
	geometries map[ResourceID]*Geometry
	materials  map[ResourceID]*Material
	textures   map[ResourceID]*Texture
}

func NewResources() *Resources {
	return &Resources{
		geometries: make(map[ResourceID]*Geometry),
		materials:  make(map[ResourceID]*Material),
		textures:   make(map[ResourceID]*Texture),
	}
}

// Live reports how many resources of each kind have not been disposed.
func (r *Resources) Live() (geometries, materials, textures int) {
	return len(r.geometries), len(r.materials), len(r.textures)
}

type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Color    mgl32.Vec3
}

type Geometry struct {
	id       ResourceID
	owner    *Resources
	disposed bool

	Vertices []Vertex
	Indices  []uint32
}

func (r *Resources) NewGeometry(vertices []Vertex, indices []uint32) *Geometry {
	g := &Geometry{
		id:       makeResourceID(),
		owner:    r,
		Vertices: vertices,
		Indices:  indices,
	}
	r.geometries[g.id] = g
	return g
}

func (g *Geometry) ID() ResourceID { return g.id }
func (g *Geometry) Disposed() bool { return g.disposed }

func (g *Geometry) TriangleCount() int { return len(g.Indices) / 3 }

func (g *Geometry) Dispose() {
	if g.disposed {
		return
	}
	g.disposed = true
	g.Vertices = nil
	g.Indices = nil
	if g.owner != nil {
		delete(g.owner.geometries, g.id)
	}
}

type Texture struct {
	id       ResourceID
	owner    *Resources
	disposed bool

	Image *image.RGBA
}

func (r *Resources) NewTexture(img *image.RGBA) *Texture {
	t := &Texture{
		id:    makeResourceID(),
		owner: r,
		Image: img,
	}
	r.textures[t.id] = t
	return t
}

func (t *Texture) ID() ResourceID { return t.id }
func (t *Texture) Disposed() bool { return t.disposed }

func (t *Texture) Size() (int, int) {
	if t.Image == nil {
		return 0, 0
	}
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

func (t *Texture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.Image = nil
	if t.owner != nil {
		delete(t.owner.textures, t.id)
	}
}

type MaterialParams struct {
	Color        mgl32.Vec3 // linear RGB, 0..1
	Opacity      float32
	Transparent  bool
	Wireframe    bool
	VertexColors bool
	Antialias    bool
	Map          *Texture
}

type Material struct {
	MaterialParams

	id       ResourceID
	owner    *Resources
	disposed bool
}

func (r *Resources) NewMaterial(params MaterialParams) *Material {
	if params.Opacity == 0 && !params.Transparent {
		params.Opacity = 1
	}
	m := &Material{
		MaterialParams: params,
		id:             makeResourceID(),
		owner:          r,
	}
	r.materials[m.id] = m
	return m
}

func (m *Material) ID() ResourceID { return m.id }
func (m *Material) Disposed() bool { return m.disposed }

// Dispose releases the material and the texture bound to it.
func (m *Material) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	if m.Map != nil {
		m.Map.Dispose()
		m.Map = nil
	}
	if m.owner != nil {
		delete(m.owner.materials, m.id)
	}
}
