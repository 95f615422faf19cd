package fonts

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

type FontName string

const (
	Panel      FontName = "panel"
	PanelTitle FontName = "panel-title"
	PanelSmall FontName = "panel-small"
)

func (f FontName) Get() font.Face {
	return getFont(f)
}

// Face adapts the font for ebiten text/v2 and ebitenui widgets.
func (f FontName) Face() text.Face {
	return text.NewGoXFace(getFont(f))
}

var (
	fonts = map[FontName]font.Face{}
)

// LoadDefaults registers the panel fonts from the embedded Go Regular face.
func LoadDefaults() error {
	for name, size := range map[FontName]float64{
		Panel:      13,
		PanelTitle: 16,
		PanelSmall: 11,
	} {
		if err := LoadFontWithSize(name, goregular.TTF, size); err != nil {
			return err
		}
	}
	return nil
}

func LoadFont(name FontName, ttf []byte) error {
	return LoadFontWithSize(name, ttf, 10)
}

func LoadFontWithSize(name FontName, ttf []byte, size float64) error {
	fontData, err := truetype.Parse(ttf)
	if err != nil {
		return fmt.Errorf("font %s: %w", name, err)
	}
	fonts[name] = truetype.NewFace(fontData, &truetype.Options{Size: size})
	return nil
}

func getFont(name FontName) font.Face {
	f, ok := fonts[name]
	if !ok {
		panic(fmt.Sprintf("Font %s not found", name))
	}
	return f
}
