package lut

import (
	"errors"
	"strings"
	"testing"
)

func TestNewValidatesSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		dataLen int
		wantErr bool
	}{
		{"exact", 4, 4 * 4 * 4 * 3, false},
		{"short payload", 4, 4*4*4*3 - 1, true},
		{"long payload", 4, 4*4*4*3 + 3, true},
		{"edge too small", 1, 3, true},
		{"edge too large", MaxSize + 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, make([]byte, tt.dataLen))
			if tt.wantErr {
				if !errors.Is(err, ErrSize) {
					t.Errorf("New(%d, %d bytes) error = %v, want ErrSize", tt.size, tt.dataLen, err)
				}
				return
			}
			if err != nil {
				t.Errorf("New(%d, %d bytes) unexpected error: %v", tt.size, tt.dataLen, err)
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	c := Identity(17)
	if len(c.Data) != 17*17*17*3 {
		t.Fatalf("len(Data) = %d, want %d", len(c.Data), 17*17*17*3)
	}

	r, g, b := c.Texel(0, 0, 0)
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("Texel(0,0,0) = %d,%d,%d, want 0,0,0", r, g, b)
	}
	r, g, b = c.Texel(16, 0, 8)
	if r != 255 || g != 0 || b != 128 {
		t.Errorf("Texel(16,0,8) = %d,%d,%d, want 255,0,128", r, g, b)
	}

	// red varies fastest in memory
	if c.Data[3] == 0 || c.Data[4] != 0 || c.Data[5] != 0 {
		t.Errorf("second texel = %v, want red step only", c.Data[3:6])
	}
}

func TestSetTexel(t *testing.T) {
	c := Identity(2)
	sum := c.Checksum()
	c.SetTexel(1, 1, 1, 1, 2, 3)

	if r, g, b := c.Texel(1, 1, 1); r != 1 || g != 2 || b != 3 {
		t.Errorf("Texel after SetTexel = %d,%d,%d", r, g, b)
	}
	if r, _, _ := c.Texel(1, 0, 0); r != 255 {
		t.Errorf("SetTexel touched a neighbour: Texel(1,0,0) red = %d", r)
	}
	if c.Checksum() == sum {
		t.Error("checksum unchanged after SetTexel")
	}
}

func TestParseCubeFile(t *testing.T) {
	src := `# generated
TITLE "test"
LUT_3D_SIZE 2
DOMAIN_MIN 0 0 0
DOMAIN_MAX 1 1 1

0 0 0
1 0 0
0 1 0
1 1 0
0 0 1
1 0 1
0 1 1
1 1 0.5
`
	c, err := ParseCubeFile(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseCubeFile: %v", err)
	}
	if c.Size != 2 {
		t.Errorf("Size = %d, want 2", c.Size)
	}
	if r, g, b := c.Texel(1, 0, 0); r != 255 || g != 0 || b != 0 {
		t.Errorf("Texel(1,0,0) = %d,%d,%d, want 255,0,0", r, g, b)
	}
	if r, g, b := c.Texel(1, 1, 1); r != 255 || g != 255 || b != 128 {
		t.Errorf("Texel(1,1,1) = %d,%d,%d, want 255,255,128", r, g, b)
	}
}

func TestParseCubeFileErrors(t *testing.T) {
	tests := map[string]string{
		"missing size":   "0 0 0\n",
		"1d table":       "LUT_1D_SIZE 16\n",
		"bad size":       "LUT_3D_SIZE x\n",
		"short triplet":  "LUT_3D_SIZE 2\n0 0\n",
		"bad number":     "LUT_3D_SIZE 2\n0 a 0\n",
		"too few rows":   "LUT_3D_SIZE 2\n0 0 0\n",
		"too many rows":  "LUT_3D_SIZE 2\n" + strings.Repeat("0 0 0\n", 9),
		"no size at all": "",
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCubeFile(strings.NewReader(src)); err == nil {
				t.Errorf("ParseCubeFile(%q) expected error", src)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(t.TempDir() + "/nope.cube"); err == nil {
		t.Error("LoadFile on missing file expected error")
	}
}

func TestMapNearest(t *testing.T) {
	c := Identity(5)
	tests := []struct{ in, want uint8 }{
		{0, 0}, {255, 255}, {128, 128}, {60, 64}, {200, 191},
	}
	for _, tt := range tests {
		r, g, b := c.Map(tt.in, tt.in, tt.in)
		if r != tt.want || g != tt.want || b != tt.want {
			t.Errorf("Map(%d) = %d,%d,%d, want %d", tt.in, r, g, b, tt.want)
		}
	}
}
