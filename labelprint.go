// Package labelprint renders label markup for a 384 dot thermal label
// printer.  The pipeline is markup -> interpreter -> grayscale surface ->
// packed monochrome bitmap; the printers package turns the bitmap into the
// printer command stream.
package labelprint

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/rusq/labelprint/bitmap"
	"github.com/rusq/labelprint/zpl"
)

const (
	// Dpmm is the printer resolution in dots per millimetre.
	Dpmm = 8
	// MaxWidthDots is the width of the print head.
	MaxWidthDots = 384
	// MinWidthMM and MaxWidthMM bound the supported label stock width.
	MinWidthMM = 20
	MaxWidthMM = 48
)

// Geometry is the label size in printer dots.
type Geometry struct {
	WidthDots  int
	HeightDots int
}

// ValidationError reports a label size outside the printable range.
type ValidationError struct {
	Field string
	Value float64
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid label %s %gmm: %s", e.Field, e.Value, e.Msg)
}

// Validate converts a label size in millimetres to printer dots.  The width
// is checked against the supported stock range before the print head bound,
// so an oversized label is reported in stock terms.
func Validate(widthMM, heightMM float64) (Geometry, error) {
	if widthMM < MinWidthMM || widthMM > MaxWidthMM {
		return Geometry{}, &ValidationError{Field: "width", Value: widthMM,
			Msg: fmt.Sprintf("supported stock is %d-%dmm", MinWidthMM, MaxWidthMM)}
	}
	w := mmToDots(widthMM)
	if w > MaxWidthDots {
		return Geometry{}, &ValidationError{Field: "width", Value: widthMM,
			Msg: fmt.Sprintf("wider than the %d dot print head", MaxWidthDots)}
	}
	h := mmToDots(heightMM)
	if h < 1 {
		return Geometry{}, &ValidationError{Field: "height", Value: heightMM,
			Msg: "label height must be at least one dot"}
	}
	return Geometry{WidthDots: w, HeightDots: h}, nil
}

func mmToDots(mm float64) int {
	return int(math.Round(mm * Dpmm))
}

type renderOptions struct {
	dithered bool
}

type RenderOption func(*renderOptions)

// WithDithering enables Floyd-Steinberg error diffusion in the final
// monochrome reduction.  Off by default: label graphics are mostly solid
// black on white and threshold reduction keeps their edges sharp.
func WithDithering(enabled bool) RenderOption {
	return func(o *renderOptions) {
		o.dithered = enabled
	}
}

// Render interprets label markup onto a surface of the given geometry and
// packs it into the monochrome convention of [bitmap.ToMono].  Diagnostics
// for commands the interpreter could not apply are returned alongside; they
// do not fail the render.
func Render(src string, g Geometry, opt ...RenderOption) ([]byte, []string, error) {
	var opts renderOptions
	for _, fn := range opt {
		fn(&opts)
	}
	if g.WidthDots < 1 || g.WidthDots > MaxWidthDots || g.HeightDots < 1 {
		return nil, nil, fmt.Errorf("unprintable geometry %dx%d dots", g.WidthDots, g.HeightDots)
	}
	sfc, diags := zpl.Interpret(zpl.Parse(src), g.WidthDots, g.HeightDots)
	return bitmap.ToMono(sfc.Image(), opts.dithered), diags, nil
}

// RenderImage fits an arbitrary image onto a label of the given geometry and
// packs it like [Render] does.  The image is scaled down to the label width
// when necessary, dithered with the named function from the bitmap registry
// (empty name selects the default) and cropped or padded to the label
// height.
func RenderImage(img image.Image, g Geometry, ditherName string, gamma float64) ([]byte, error) {
	if g.WidthDots < 1 || g.WidthDots > MaxWidthDots || g.HeightDots < 1 {
		return nil, fmt.Errorf("unprintable geometry %dx%d dots", g.WidthDots, g.HeightDots)
	}
	ditherFn, ok := bitmap.DitherFunction(ditherName)
	if !ok {
		return nil, fmt.Errorf("unknown dither function: %s", ditherName)
	}
	fitted := ditherFn(bitmap.ResizeToFit(img, g.WidthDots), gamma)

	canvas := image.NewRGBA(image.Rect(0, 0, g.WidthDots, g.HeightDots))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	target := image.Rect(0, 0, fitted.Bounds().Dx(), fitted.Bounds().Dy()).Intersect(canvas.Bounds())
	draw.Draw(canvas, target, fitted, fitted.Bounds().Min, draw.Src)
	return bitmap.ToMono(canvas, false), nil
}
