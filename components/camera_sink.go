package components

import (
	"github.com/experica/orthocam/shared/geometry"
	"github.com/experica/orthocam/shared/lut"
	"github.com/yohamta/donburi"
)

// CameraSink writes camera state into a donburi entry. Entries without a
// Volume component behave like a camera with no tone-mapping effect.
type CameraSink struct {
	entry *donburi.Entry
}

// NewCameraSink wraps an entry that has at least the Camera component.
func NewCameraSink(entry *donburi.Entry) *CameraSink {
	return &CameraSink{entry: entry}
}

// NewCameraEntity creates a camera with the default projection and a
// post-processing volume.
func NewCameraEntity(world donburi.World) *donburi.Entry {
	entity := world.Create(Camera, Volume)
	entry := world.Entry(entity)
	Camera.SetValue(entry, CameraData{
		Projection:    geometry.DefaultProjection(),
		BackgroundHDR: geometry.Gray,
	})
	return entry
}

func (s *CameraSink) Entry() *donburi.Entry {
	return s.entry
}

func (s *CameraSink) Projection() geometry.Projection {
	return Camera.Get(s.entry).Projection
}

func (s *CameraSink) SetOrthographicSize(degrees float32) {
	Camera.Get(s.entry).Projection.OrthographicSize = degrees
}

func (s *CameraSink) SetAspect(aspect float32) {
	Camera.Get(s.entry).Projection.Aspect = aspect
}

func (s *CameraSink) SetBackgroundHDR(c geometry.Color) {
	Camera.Get(s.entry).BackgroundHDR = c
}

func (s *CameraSink) SetTonemapping(active bool) bool {
	if !s.entry.HasComponent(Volume) {
		return false
	}
	Volume.Get(s.entry).Tonemapping = active
	return true
}

func (s *CameraSink) SetLUT(c *lut.Cube) bool {
	if !s.entry.HasComponent(Volume) {
		return false
	}
	v := Volume.Get(s.entry)
	v.LUT = c
	v.LUTVersion++
	return true
}
