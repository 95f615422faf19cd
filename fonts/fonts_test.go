package fonts

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestLoadDefaults(t *testing.T) {
	if err := LoadDefaults(); err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	small := PanelSmall.Get().Metrics().Height
	title := PanelTitle.Get().Metrics().Height
	if small <= 0 || title <= small {
		t.Errorf("line heights small=%v title=%v, want 0 < small < title", small, title)
	}
}

func TestLoadFontRejectsGarbage(t *testing.T) {
	if err := LoadFont("bad", []byte("not a font")); err == nil {
		t.Error("expected parse error")
	}
	if err := LoadFont("ok", goregular.TTF); err != nil {
		t.Errorf("LoadFont: %v", err)
	}
}

func TestMissingFontPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Get of an unknown font did not panic")
		}
	}()
	FontName("missing").Get()
}
