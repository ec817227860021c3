package printers

import (
	"bytes"
	"fmt"

	"github.com/rusq/labelprint"
	"github.com/rusq/labelprint/bitmap"
)

const (
	esc = 0x1B
	gs  = 0x1D
)

// DefaultFeedMM is the paper feed after each printed label.
const DefaultFeedMM = 10

var (
	cmdInit        = []byte{esc, '@'}           // initialise printer
	cmdLineSpacing = []byte{esc, '3', 0x00}     // line spacing to zero
	cmdRasterMode  = []byte{gs, 'v', '0', 0x00} // raster bit image, normal mode
)

// EncodeRaster builds the full print command stream for one label: init,
// zero line spacing, raster header, the bitmap with inverted polarity (the
// wire format has 1 = black) and the post-print feed.  The bitmap must be in
// the packed convention of [bitmap.ToMono].
func EncodeRaster(mono []byte, width, height int) ([]byte, error) {
	if width < 1 || width > labelprint.MaxWidthDots {
		return nil, fmt.Errorf("width %d exceeds the %d dot print head", width, labelprint.MaxWidthDots)
	}
	rowBytes := bitmap.RowBytes(width)
	if len(mono) != rowBytes*height {
		return nil, fmt.Errorf("bitmap is %d bytes, want %d (%d bytes x %d rows)",
			len(mono), rowBytes*height, rowBytes, height)
	}
	var buf bytes.Buffer
	buf.Grow(len(mono) + 16)
	buf.Write(cmdInit)
	buf.Write(cmdLineSpacing)
	buf.Write(cmdRasterMode)
	buf.WriteByte(byte(rowBytes))
	buf.WriteByte(byte(rowBytes >> 8))
	buf.WriteByte(byte(height))
	buf.WriteByte(byte(height >> 8))
	for _, b := range mono {
		buf.WriteByte(b ^ 0xFF)
	}
	buf.Write(EncodeFeed(DefaultFeedMM))
	return buf.Bytes(), nil
}

// EncodeFeed builds a feed-only command advancing the paper by the given
// distance.  The distance is converted to print head dots and clamped to
// what the single-byte operand can carry.
func EncodeFeed(mm int) []byte {
	dots := mm * labelprint.Dpmm
	if dots < 0 {
		dots = 0
	}
	if dots > 255 {
		dots = 255
	}
	return []byte{esc, 'J', byte(dots)}
}
