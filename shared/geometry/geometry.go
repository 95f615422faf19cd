// Package geometry converts physical viewing geometry into visual-angle
// projection parameters. It has no dependency on networking or rendering so
// both the command host and environment clients can share it.
package geometry

import "math"

// Default viewing geometry of a freshly created camera.
const (
	DefaultScreenToEye  float32 = 57
	DefaultScreenHeight float32 = 30
	DefaultScreenAspect float32 = 4.0 / 3.0
	DefaultMapColor             = true
)

// Default camera placement. The camera looks down +z from behind the
// stimulus plane so near/far planes bracket z = 0.
const (
	DefaultCameraZ  float32 = -1001
	DefaultNearClip float32 = 1
	DefaultFarClip  float32 = 2001
)

// HalfAngle returns the orthographic half-size in degrees of visual angle for
// a screen of the given height seen from screenToEye away.
// A zero distance yields the 90 degree limit.
func HalfAngle(screenHeight, screenToEye float32) float32 {
	rad := math.Atan2(float64(screenHeight)/2, float64(screenToEye))
	return float32(rad * 180 / math.Pi)
}

// Projection is the live projection state of an orthographic camera whose
// units are degrees of visual angle.
type Projection struct {
	OrthographicSize float32 // half height, degrees
	Aspect           float32 // width / height
	NearClip         float32
	FarClip          float32
	Z                float32 // camera local z
}

// DefaultProjection returns the projection matching the default geometry.
func DefaultProjection() Projection {
	return Projection{
		OrthographicSize: HalfAngle(DefaultScreenHeight, DefaultScreenToEye),
		Aspect:           DefaultScreenAspect,
		NearClip:         DefaultNearClip,
		FarClip:          DefaultFarClip,
		Z:                DefaultCameraZ,
	}
}

// Height of the viewport in degrees.
func (p Projection) Height() float32 {
	return p.OrthographicSize * 2
}

// Width of the viewport in degrees.
func (p Projection) Width() float32 {
	return p.OrthographicSize * 2 * p.Aspect
}

// NearPlane is the world-space z of the near clip plane.
func (p Projection) NearPlane() float32 {
	return p.Z + p.NearClip
}

// FarPlane is the world-space z of the far clip plane.
func (p Projection) FarPlane() float32 {
	return p.Z + p.FarClip
}

// DegreesToPixels returns how many screen pixels one degree of visual angle
// covers for a viewport of the given pixel height.
func (p Projection) DegreesToPixels(viewportPixels int) float64 {
	h := p.Height()
	if h <= 0 {
		return 0
	}
	return float64(viewportPixels) / float64(h)
}
