package zpl

import (
	"errors"
	"fmt"
	"os"

	"github.com/rusq/fontpic"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// DefaultFontID is the font active at the start of every render.
const DefaultFontID = "0"

var ErrFontNotFound = errors.New("font not found")

// builtinFaces maps label font identifiers onto the embedded bitmap faces.
// The identifiers follow the markup's single-character font names.
var builtinFaces = map[string]font.Face{
	"0": fontpic.Face8x16,
	"1": fontpic.Face8x8,
	"2": fontpic.Face8x14,
	"3": fontpic.Face6x5,
	"4": fontpic.Face6x5Bold,
	"5": fontpic.Face6x5Italic,
	"6": fontpic.Face4x5,
	"7": fontpic.Face4x4,
	"8": fontpic.Face4x4Bold,
	"9": fontpic.Face4x4Italic,
	"A": fontpic.Face8x8,
	"B": fontpic.Face6x5Bold,
	"D": fontpic.Face8x16,
	"E": fontpic.FaceRobotron,
}

// Face returns the embedded face for a font identifier.
func Face(id string) (font.Face, error) {
	face, ok := builtinFaces[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrFontNotFound)
	}
	return face, nil
}

const maxFontSize = 10 * 1048576 // 10 MB

// LoadFontFile loads a TrueType or OpenType face from disk with the given
// point size and DPI.  It backs the markup's @-font selection.
func LoadFontFile(filename string, size, dpi float64) (font.Face, error) {
	fi, err := os.Stat(filename)
	if err != nil {
		return nil, err
	}
	if maxFontSize < fi.Size() {
		return nil, errors.New("font file is too large")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	fnt, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	return face, nil
}
