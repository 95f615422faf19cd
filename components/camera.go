package components

import (
	"github.com/experica/orthocam/shared/geometry"
	"github.com/experica/orthocam/shared/lut"
	"github.com/yohamta/donburi"
)

// CameraData is the live state of the stimulus camera. Projection units are
// degrees of visual angle.
type CameraData struct {
	Projection    geometry.Projection
	BackgroundHDR geometry.Color
}

var Camera = donburi.NewComponentType[CameraData]()

// VolumeData is the post-processing state attached to the camera.
type VolumeData struct {
	Tonemapping bool      // effect active
	LUT         *lut.Cube // lookup texture, nil until one is received
	LUTVersion  int       // bumped whenever LUT is replaced
}

var Volume = donburi.NewComponentType[VolumeData]()
