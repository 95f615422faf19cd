package core

import (
	"github.com/experica/orthocam/config"
	"github.com/experica/orthocam/orthocam"
	"github.com/experica/orthocam/shared/geometry"
)

// ApplyGeometry sets every field present in g on the authority camera.
func ApplyGeometry(cam *orthocam.OrthoCamera, g config.GeometryConfig) {
	if g.ScreenToEye != nil {
		cam.SetScreenToEye(*g.ScreenToEye)
	}
	if g.ScreenHeight != nil {
		cam.SetScreenHeight(*g.ScreenHeight)
	}
	if g.ScreenAspect != nil {
		cam.SetScreenAspect(*g.ScreenAspect)
	}
	if g.BGColor != nil {
		cam.SetBGColor(g.BGColor.Color)
	}
	if g.MapColor != nil {
		cam.SetMapColor(*g.MapColor)
	}
}

func colorFromArray(a [4]float32) geometry.Color {
	return geometry.ColorFromArray(a)
}
