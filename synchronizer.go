package tilescene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/tilescene/scene"
)

// Synchronizer owns the tile-to-object mapping and keeps every object's
// placement and visibility in step with the viewport.
type Synchronizer struct {
	scene   *scene.Scene
	objects map[TileKey]*scene.Object
	logger  Logger
}

func NewSynchronizer(s *scene.Scene, logger Logger) *Synchronizer {
	return &Synchronizer{
		scene:   s,
		objects: make(map[TileKey]*scene.Object),
		logger:  logger,
	}
}

func (s *Synchronizer) Scene() *scene.Scene { return s.scene }
func (s *Synchronizer) Len() int            { return len(s.objects) }

func (s *Synchronizer) Object(key TileKey) (*scene.Object, bool) {
	obj, ok := s.objects[key]
	return obj, ok
}

func tilePosition(t *Tile) mgl32.Vec3 {
	return mgl32.Vec3{float32(t.Translate.X), float32(-t.Translate.Y), 0}
}

// Attach places obj at the tile's translation and adds it to the scene.
// An object for a tile at another zoom level is attached hidden. Any
// previous object for the tile is released first.
func (s *Synchronizer) Attach(t *Tile, obj *scene.Object, view ViewState) error {
	if prev, ok := s.objects[t.Key]; ok && prev != obj {
		s.Release(t.Key)
	}
	obj.Transform.Position = tilePosition(t)
	s.objects[t.Key] = obj
	if t.Key.Zoom != view.ZoomLevel {
		obj.Visible = false
		return nil
	}
	obj.Visible = true
	return s.scene.AddObject(obj)
}

// Hide detaches the tile's object without disposing it.
func (s *Synchronizer) Hide(key TileKey) {
	obj, ok := s.objects[key]
	if !ok {
		return
	}
	obj.Visible = false
	s.scene.RemoveObject(obj)
}

// Show reattaches a hidden object.
func (s *Synchronizer) Show(key TileKey) error {
	obj, ok := s.objects[key]
	if !ok || obj.Visible {
		return nil
	}
	obj.Visible = true
	return s.scene.AddObject(obj)
}

// Release detaches and disposes the tile's object. The object is dropped
// from the mapping so nothing can reach it afterwards.
func (s *Synchronizer) Release(key TileKey) bool {
	obj, ok := s.objects[key]
	if !ok {
		return false
	}
	delete(s.objects, key)
	obj.Dispose()
	return true
}

// Sync applies a move: tiles at the current zoom level are repositioned
// and shown, the rest are hidden, and the scene root takes the fractional
// zoom scale.
func (s *Synchronizer) Sync(view ViewState, tiles []*Tile) {
	s.scene.Root.SetUniformScale(float32(view.Scale()))
	for _, t := range tiles {
		obj, ok := s.objects[t.Key]
		if !ok {
			continue
		}
		if t.Key.Zoom != view.ZoomLevel {
			if obj.Visible || obj.Attached() {
				s.Hide(t.Key)
			}
			continue
		}
		obj.Transform.Position = tilePosition(t)
		if err := s.Show(t.Key); err != nil {
			s.logger.Errorf("show tile %s: %v", t.Key, err)
		}
	}
}
