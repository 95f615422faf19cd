package components

import (
	"testing"

	"github.com/experica/orthocam/shared/geometry"
	"github.com/experica/orthocam/shared/lut"
	"github.com/yohamta/donburi"
)

func TestCameraSink(t *testing.T) {
	world := donburi.NewWorld()
	entry := NewCameraEntity(world)
	sink := NewCameraSink(entry)

	if sink.Projection() != geometry.DefaultProjection() {
		t.Errorf("Projection() = %+v, want default", sink.Projection())
	}

	sink.SetOrthographicSize(10)
	sink.SetAspect(2)
	sink.SetBackgroundHDR(geometry.Color{R: 1, A: 1})

	cam := Camera.Get(entry)
	if cam.Projection.OrthographicSize != 10 || cam.Projection.Aspect != 2 {
		t.Errorf("projection = %+v", cam.Projection)
	}
	if cam.BackgroundHDR != (geometry.Color{R: 1, A: 1}) {
		t.Errorf("background = %v", cam.BackgroundHDR)
	}

	if !sink.SetTonemapping(true) || !Volume.Get(entry).Tonemapping {
		t.Error("tone-mapping not enabled")
	}
	cube := lut.Identity(2)
	if !sink.SetLUT(cube) {
		t.Fatal("SetLUT reported no volume")
	}
	if v := Volume.Get(entry); v.LUT != cube || v.LUTVersion != 1 {
		t.Errorf("volume = %+v", v)
	}
}

func TestCameraSinkWithoutVolume(t *testing.T) {
	world := donburi.NewWorld()
	entry := world.Entry(world.Create(Camera))
	sink := NewCameraSink(entry)

	if sink.SetTonemapping(true) {
		t.Error("SetTonemapping succeeded without a volume")
	}
	if sink.SetLUT(lut.Identity(2)) {
		t.Error("SetLUT succeeded without a volume")
	}
}
