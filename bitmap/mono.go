package bitmap

import (
	"image"
	"image/color"
)

const (
	// DefaultThreshold is the default threshold for dark pixels.
	DefaultThreshold = 128
	// DefaultGamma is a special value that instructs to use the default gamma
	// for the diffuse algorithm.
	DefaultGamma = 0.0
)

// RowBytes returns the number of bytes in one packed bitmap row.
func RowBytes(width int) int {
	return (width + 7) / 8
}

// Luminance returns the perceived brightness of c.
func Luminance(c color.Color) uint8 {
	if gray, ok := c.(color.Gray); ok {
		return gray.Y
	}
	r, g, b, _ := c.RGBA()
	gray := (299*r + 587*g + 114*b) / 1000
	return uint8(gray >> 8)
}

// PixelBit reports whether the pixel at (x, y) is dark.  Coordinates outside
// the image are white.
func PixelBit(img image.Image, x, y int, threshold uint8) bool {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if y >= img.Bounds().Dy() {
		return false // padded line
	}
	if x >= img.Bounds().Dx() {
		return false // image narrower than the print head
	}
	c := img.At(img.Bounds().Min.X+x, img.Bounds().Min.Y+y)
	return Luminance(c) < threshold
}

// ToMono reduces img to a packed 1-bit bitmap: row-major, RowBytes(width)
// bytes per row, MSB first, 1 = white.  Unused trailing bits of a row are
// left zero.  With dithered set, Floyd-Steinberg error diffusion is applied,
// otherwise pixels are thresholded at [DefaultThreshold] (inclusive).
func ToMono(img image.Image, dithered bool) []byte {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	rowBytes := RowBytes(width)
	out := make([]byte, rowBytes*height)

	setWhite := func(x, y int) {
		out[y*rowBytes+x/8] |= 1 << (7 - x%8)
	}

	if !dithered {
		for y := range height {
			for x := range width {
				if Luminance(img.At(bounds.Min.X+x, bounds.Min.Y+y)) >= DefaultThreshold {
					setWhite(x, y)
				}
			}
		}
		return out
	}

	// Error diffusion works on a signed copy of the luminance plane so that
	// accumulated error may leave the 0..255 range.
	buf := make([]int, width*height)
	for y := range height {
		for x := range width {
			buf[y*width+x] = int(Luminance(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}
	for y := range height {
		for x := range width {
			old := buf[y*width+x]
			var quantized int
			if old >= DefaultThreshold {
				quantized = 255
				setWhite(x, y)
			}
			err := old - quantized
			if x+1 < width {
				buf[y*width+x+1] += err * 7 / 16
			}
			if y+1 < height {
				if x > 0 {
					buf[(y+1)*width+x-1] += err * 3 / 16
				}
				buf[(y+1)*width+x] += err * 5 / 16
				if x+1 < width {
					buf[(y+1)*width+x+1] += err * 1 / 16
				}
			}
		}
	}
	return out
}
