package render

import (
	"fmt"
	"image/color"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/experica/orthocam/components"
	"github.com/experica/orthocam/fonts"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/yohamta/donburi/ecs"
)

// Geometry is the camera state shown in the panel.
type Geometry struct {
	ScreenToEye  float32
	ScreenHeight float32
	Aspect       float32
	WidthDeg     float32
	HeightDeg    float32
	Near         float32
	Far          float32
}

// ViewportPanel is the toggleable info overlay of the environment display.
// Geometry is pushed by the camera's change listener; the table, background
// and connection lines are refreshed every frame.
type ViewportPanel struct {
	UI *ebitenui.UI

	geometry   *widget.Label
	planes     *widget.Label
	background *widget.Label
	table      *widget.Label
	status     *widget.Label

	titleFace  text.Face
	normalFace text.Face
	smallFace  text.Face
}

// NewViewportPanel builds the panel. The fonts package must be loaded.
func NewViewportPanel() *ViewportPanel {
	p := &ViewportPanel{
		titleFace:  fonts.PanelTitle.Face(),
		normalFace: fonts.Panel.Face(),
		smallFace:  fonts.PanelSmall.Face(),
	}
	p.buildUI()
	return p
}

func (p *ViewportPanel) buildUI() {
	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)

	padding := widget.Insets{Top: 6, Bottom: 6, Left: 8, Right: 8}
	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(image.NewNineSliceColor(color.NRGBA{R: 0, G: 0, B: 0, A: 160})),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Padding(&padding),
			widget.RowLayoutOpts.Spacing(3),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionStart,
				VerticalPosition:   widget.AnchorLayoutPositionStart,
			}),
		),
	)

	panel.AddChild(widget.NewLabel(
		widget.LabelOpts.Text("VIEWPORT", &p.titleFace, &widget.LabelColor{
			Idle: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		}),
	))

	line := func(face *text.Face, clr color.Color) *widget.Label {
		l := widget.NewLabel(widget.LabelOpts.Text("", face, &widget.LabelColor{Idle: clr}))
		panel.AddChild(l)
		return l
	}
	body := color.NRGBA{R: 220, G: 220, B: 220, A: 255}
	dim := color.NRGBA{R: 160, G: 160, B: 160, A: 255}
	p.geometry = line(&p.normalFace, body)
	p.planes = line(&p.smallFace, dim)
	p.background = line(&p.normalFace, body)
	p.table = line(&p.normalFace, body)
	p.status = line(&p.smallFace, color.NRGBA{R: 255, G: 200, B: 100, A: 255})

	root.AddChild(panel)
	p.UI = &ebitenui.UI{Container: root}
}

// SetGeometry replaces the geometry lines.
func (p *ViewportPanel) SetGeometry(g Geometry) {
	p.geometry.Label = geometryText(g)
	p.planes.Label = planesText(g)
}

// Update refreshes the per-frame lines from the camera entity and runs the
// widget tree.
func (p *ViewportPanel) Update(e *ecs.ECS, status string) {
	if entry, ok := components.Camera.First(e.World); ok {
		cam := components.Camera.Get(entry)
		p.background.Label = fmt.Sprintf("bg %s", cam.BackgroundHDR)
		var vol *components.VolumeData
		if entry.HasComponent(components.Volume) {
			vol = components.Volume.Get(entry)
		}
		p.table.Label = tableText(vol)
	}
	p.status.Label = fmt.Sprintf("%s  %.0f fps", status, ebiten.ActualFPS())
	p.UI.Update()
}

func (p *ViewportPanel) Draw(screen *ebiten.Image) {
	p.UI.Draw(screen)
}

func geometryText(g Geometry) string {
	return fmt.Sprintf("%.2f x %.2f deg  (%.1f cm @ %.1f cm, aspect %.3f)",
		g.WidthDeg, g.HeightDeg, g.ScreenHeight, g.ScreenToEye, g.Aspect)
}

func planesText(g Geometry) string {
	return fmt.Sprintf("near %.0f  far %.0f", g.Near, g.Far)
}

func tableText(v *components.VolumeData) string {
	switch {
	case v == nil:
		return "lut n/a"
	case !v.Tonemapping:
		return "lut off"
	case v.LUT == nil:
		return "lut on (no table)"
	}
	return fmt.Sprintf("lut on (edge %d, v%d)", v.LUT.Size, v.LUTVersion)
}
