package orthocam

import "github.com/experica/orthocam/shared/geometry"

// State is a read-only view of the stored and derived geometry.
type State struct {
	ScreenToEye  float32        `json:"screenToEye"`
	ScreenHeight float32        `json:"screenHeight"`
	ScreenAspect float32        `json:"screenAspect"`
	BGColor      geometry.Color `json:"bgColor"`
	MapColor     bool           `json:"mapColor"`

	Height    float32 `json:"height"`
	Width     float32 `json:"width"`
	NearPlane float32 `json:"nearPlane"`
	FarPlane  float32 `json:"farPlane"`
}

// State captures the current fields and derived projection values.
func (c *OrthoCamera) State() State {
	p := c.sink.Projection()
	return State{
		ScreenToEye:  c.ScreenToEye.Get(),
		ScreenHeight: c.ScreenHeight.Get(),
		ScreenAspect: c.ScreenAspect.Get(),
		BGColor:      c.BGColor.Get(),
		MapColor:     c.MapColor.Get(),
		Height:       p.Height(),
		Width:        p.Width(),
		NearPlane:    p.NearPlane(),
		FarPlane:     p.FarPlane(),
	}
}
