package geometry

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Color is a linear RGBA color with float components. Components may exceed
// 1 for HDR backgrounds.
type Color struct {
	R, G, B, A float32
}

// Gray is the default camera background.
var Gray = Color{R: 0.5, G: 0.5, B: 0.5, A: 1}

// Array returns the color as a wire-friendly array.
func (c Color) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// ColorFromArray is the inverse of Color.Array.
func ColorFromArray(a [4]float32) Color {
	return Color{R: a[0], G: a[1], B: a[2], A: a[3]}
}

// FromColor converts any image/color value.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{
		R: float32(n.R) / 255,
		G: float32(n.G) / 255,
		B: float32(n.B) / 255,
		A: float32(n.A) / 255,
	}
}

// NRGBA clamps the color into 8-bit range.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}
}

func to8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%.3f, %.3f, %.3f, %.3f)", c.R, c.G, c.B, c.A)
}

// ParseColor accepts an SVG color name ("gray", "black") or a hex string
// "#rrggbb" / "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if named, ok := colornames.Map[strings.ToLower(s)]; ok {
		return FromColor(named), nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(hex[start:start+2], 16, 8)
		return uint8(v), err
	}

	var rgba [4]uint8
	rgba[3] = 255
	for i := 0; i < len(hex)/2; i++ {
		v, err := parse(i * 2)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		rgba[i] = v
	}
	return FromColor(color.NRGBA{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}), nil
}
