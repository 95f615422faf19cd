package directory

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStatusFlattensIntoHost(t *testing.T) {
	h := Host{
		ID:   "1",
		Name: "rig-a",
		Status: Status{
			Observers: 2,
			Display:   &Display{ScreenToEye: 57, MapColor: true, LUT: "warm", LUTEdge: 17},
		},
	}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"observers":2`) || !strings.Contains(s, `"display":{`) {
		t.Errorf("json = %s", s)
	}

	var reg Register
	if err := json.Unmarshal([]byte(`{"name":"x","address":"y","observers":3}`), &reg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if reg.Observers != 3 || reg.Display != nil {
		t.Errorf("register = %+v", reg)
	}
}

func TestDisplayString(t *testing.T) {
	cases := []struct {
		d    *Display
		want string
	}{
		{nil, "no display"},
		{&Display{WidthDeg: 39.1, HeightDeg: 29.3, ScreenToEye: 57}, "39.1 x 29.3 deg @ 57 cm, mapping off"},
		{&Display{WidthDeg: 1, HeightDeg: 1, ScreenToEye: 10, MapColor: true, LUT: "warm", LUTEdge: 17}, "1.0 x 1.0 deg @ 10 cm, lut warm/17"},
		{&Display{WidthDeg: 1, HeightDeg: 1, ScreenToEye: 10, MapColor: true}, "1.0 x 1.0 deg @ 10 cm"},
	}
	for _, tc := range cases {
		if got := tc.d.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestAccepts(t *testing.T) {
	open := Host{}
	pinned := Host{Version: "1.0"}
	if !open.Accepts("2.0") || !pinned.Accepts("") || !pinned.Accepts("1.0") || pinned.Accepts("2.0") {
		t.Error("version matching wrong")
	}
}
