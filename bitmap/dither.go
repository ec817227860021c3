package bitmap

import (
	"image"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/makeworld-the-better-one/dither/v2"
	"golang.org/x/image/draw"
)

// DitherFunc converts an image to black and white, optionally applying gamma
// correction first.  Pass [DefaultGamma] to use the algorithm's preferred
// gamma.
type DitherFunc func(img image.Image, gamma float64) image.Image

var ditherFunctions = map[string]DitherFunc{
	"floyd-steinberg": DFloydSteinberg,
	"atkinson":        DAtkinson,
	"stucki":          DStucki,
	"bayer":           DBayer,
	"no-dither":       ThresholdFn(DefaultThreshold),
}

// DitherFunction returns a registered dither function by name.  An empty name
// returns the default.
func DitherFunction(name string) (DitherFunc, bool) {
	if name == "" {
		return DFloydSteinberg, true
	}
	fn, ok := ditherFunctions[name]
	return fn, ok
}

// AllDitherFunctions returns a sorted list of all registered dither function
// names.
func AllDitherFunctions() []string {
	keys := make([]string, 0, len(ditherFunctions))
	for k := range ditherFunctions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// diffusionDither returns a dither function applying error diffusion with the
// given matrix, falling back to defaultGamma when the caller passes
// [DefaultGamma].
func diffusionDither(matrix dither.ErrorDiffusionMatrix, defaultGamma float64) DitherFunc {
	return func(img image.Image, gamma float64) image.Image {
		if gamma == DefaultGamma {
			gamma = defaultGamma
		}
		dithered := image.NewRGBA(img.Bounds())
		d := dither.NewDitherer([]color.Color{color.Black, color.White})
		d.Matrix = matrix
		d.Draw(dithered, dithered.Bounds(), imaging.AdjustGamma(img, gamma), image.Point{})
		return dithered
	}
}

// patternDither is the ordered-dithering counterpart of diffusionDither.
func patternDither(mapper dither.PixelMapper, defaultGamma float64) DitherFunc {
	return func(img image.Image, gamma float64) image.Image {
		if gamma == DefaultGamma {
			gamma = defaultGamma
		}
		dithered := image.NewRGBA(img.Bounds())
		d := dither.NewDitherer([]color.Color{color.Black, color.White})
		d.Mapper = mapper
		d.Draw(dithered, dithered.Bounds(), imaging.AdjustGamma(img, gamma), image.Point{})
		return dithered
	}
}

var (
	// DAtkinson applies Atkinson error diffusion dithering.
	DAtkinson = diffusionDither(dither.Atkinson, 3.0)
	// DStucki applies Stucki error diffusion dithering.
	DStucki = diffusionDither(dither.Stucki, 3.5)
	// DBayer applies 8x8 Bayer ordered dithering.
	DBayer = patternDither(dither.Bayer(8, 8, 1.0), 3.5)
)

// DFloydSteinberg applies Floyd-Steinberg dithering using the standard
// library drawer, so it is defined as a function instead of a variable like
// the others.
func DFloydSteinberg(img image.Image, gamma float64) image.Image {
	const defaultGamma = 1.5
	if gamma == DefaultGamma {
		gamma = defaultGamma
	}
	adjusted := imaging.AdjustGamma(img, gamma)
	dithered := image.NewPaletted(img.Bounds(), []color.Color{color.Black, color.White})
	draw.FloydSteinberg.Draw(dithered, dithered.Bounds(), adjusted, image.Point{})
	return dithered
}

// ThresholdFn returns a dither function that thresholds without diffusion.
func ThresholdFn(threshold uint8) DitherFunc {
	return func(img image.Image, _ float64) image.Image {
		if threshold == 0 {
			threshold = DefaultThreshold
		}
		trg := image.NewPaletted(img.Bounds(), []color.Color{color.Black, color.White})
		for y := 0; y < img.Bounds().Dy(); y++ {
			for x := 0; x < img.Bounds().Dx(); x++ {
				if PixelBit(img, x, y, threshold) {
					trg.SetColorIndex(img.Bounds().Min.X+x, img.Bounds().Min.Y+y, 0) // black
				} else {
					trg.SetColorIndex(img.Bounds().Min.X+x, img.Bounds().Min.Y+y, 1) // white
				}
			}
		}
		return trg
	}
}
