package render

import (
	"testing"

	"github.com/experica/orthocam/components"
	"github.com/experica/orthocam/shared/lut"
)

func TestGeometryText(t *testing.T) {
	g := Geometry{ScreenToEye: 57, ScreenHeight: 30, Aspect: 1.333, WidthDeg: 39.09, HeightDeg: 29.33, Near: -1000, Far: 1000}
	if got, want := geometryText(g), "39.09 x 29.33 deg  (30.0 cm @ 57.0 cm, aspect 1.333)"; got != want {
		t.Errorf("geometryText = %q, want %q", got, want)
	}
	if got, want := planesText(g), "near -1000  far 1000"; got != want {
		t.Errorf("planesText = %q, want %q", got, want)
	}
}

func TestTableText(t *testing.T) {
	cases := []struct {
		v    *components.VolumeData
		want string
	}{
		{nil, "lut n/a"},
		{&components.VolumeData{}, "lut off"},
		{&components.VolumeData{Tonemapping: true}, "lut on (no table)"},
		{&components.VolumeData{Tonemapping: true, LUT: lut.Identity(17), LUTVersion: 2}, "lut on (edge 17, v2)"},
	}
	for _, tc := range cases {
		if got := tableText(tc.v); got != tc.want {
			t.Errorf("tableText(%+v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}
