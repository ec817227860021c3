package bitmap

import (
	"image"

	"golang.org/x/image/draw"
)

// ResizeToFit fits img into targetWidth.  Narrow images are not upscaled but
// placed in the upper left corner of a white canvas of the target width;
// wider images are scaled down preserving the aspect ratio.
func ResizeToFit(img image.Image, targetWidth int) image.Image {
	var resized draw.Image
	if img.Bounds().Dx() <= targetWidth {
		resized = image.NewRGBA(image.Rect(0, 0, targetWidth, img.Bounds().Dy()))
		draw.Draw(resized, resized.Bounds(), image.White, image.Point{}, draw.Src)
		draw.Copy(resized, image.Point{}, img, img.Bounds(), draw.Src, nil)
	} else {
		targetHeight := (img.Bounds().Dy() * targetWidth) / img.Bounds().Dx()
		resized = image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Over, nil)
	}
	return resized
}

// Magnify scales img by independent horizontal and vertical factors using
// nearest-neighbour sampling, which keeps bitmap glyph edges crisp.  Factors
// at or below zero, or both equal to one, return img unchanged.
func Magnify(img image.Image, sx, sy float64) image.Image {
	if sx <= 0 || sy <= 0 || (sx == 1 && sy == 1) {
		return img
	}
	w := int(float64(img.Bounds().Dx())*sx + 0.5)
	h := int(float64(img.Bounds().Dy())*sy + 0.5)
	if w < 1 || h < 1 {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
