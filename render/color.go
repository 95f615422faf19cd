package render

import (
	"image/color"

	"github.com/experica/orthocam/components"
	"github.com/experica/orthocam/shared/geometry"
	"github.com/yohamta/donburi"
)

// DisplayColor returns the color actually shown for c, passing it through
// the camera's lookup table when tone-mapping is active.
func DisplayColor(c geometry.Color, entry *donburi.Entry) color.NRGBA {
	n := c.NRGBA()
	if !entry.HasComponent(components.Volume) {
		return n
	}
	v := components.Volume.Get(entry)
	if !v.Tonemapping || v.LUT == nil {
		return n
	}
	n.R, n.G, n.B = v.LUT.Map(n.R, n.G, n.B)
	return n
}

func contrast(bg color.NRGBA) color.NRGBA {
	lum := 0.2126*float64(bg.R) + 0.7152*float64(bg.G) + 0.0722*float64(bg.B)
	if lum > 127 {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
}

func withAlpha(c color.Color, a uint8) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = a
	return n
}
