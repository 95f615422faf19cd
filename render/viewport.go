// Package render draws the environment client's stimulus viewport with
// ebiten. It reads camera state from the ECS world and never mutates it.
package render

import (
	"image/color"
	"math"

	"github.com/experica/orthocam/components"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/yohamta/donburi/ecs"
)

// NewViewportRenderer fills the background and draws a visual-angle grid
// every gridStep degrees around a fixation cross. gridStep <= 0 hides the grid.
func NewViewportRenderer(gridStep float64) func(*ecs.ECS, *ebiten.Image) {
	return func(e *ecs.ECS, screen *ebiten.Image) {
		entry, ok := components.Camera.First(e.World)
		if !ok {
			return
		}
		cam := components.Camera.Get(entry)
		bg := DisplayColor(cam.BackgroundHDR, entry)
		screen.Fill(bg)

		w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
		ppd := cam.Projection.DegreesToPixels(h)
		if ppd <= 0 {
			return
		}
		fg := contrast(bg)
		cx, cy := float32(w)/2, float32(h)/2

		if gridStep > 0 {
			drawGrid(screen, cx, cy, float32(gridStep*ppd), fg)
		}

		const arm = 8
		vector.StrokeLine(screen, cx-arm, cy, cx+arm, cy, 2, fg, true)
		vector.StrokeLine(screen, cx, cy-arm, cx, cy+arm, 2, fg, true)
	}
}

func drawGrid(screen *ebiten.Image, cx, cy, step float32, clr color.Color) {
	if step < 2 {
		return
	}
	w, h := float32(screen.Bounds().Dx()), float32(screen.Bounds().Dy())
	faint := withAlpha(clr, 64)

	for x := float32(math.Mod(float64(cx), float64(step))); x <= w; x += step {
		vector.StrokeLine(screen, x, 0, x, h, 1, faint, false)
	}
	for y := float32(math.Mod(float64(cy), float64(step))); y <= h; y += step {
		vector.StrokeLine(screen, 0, y, w, y, 1, faint, false)
	}
}
