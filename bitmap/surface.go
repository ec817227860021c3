package bitmap

import (
	"image"
	"image/color"
	"image/draw"
)

// Grayscale values used by drawing operations.
const (
	Black uint8 = 0x00
	White uint8 = 0xFF
)

// Surface is an 8-bit grayscale pixel buffer with the primitive drawing
// operations the label renderer needs.  A Surface is owned by a single render
// call and is not safe for concurrent use.
type Surface struct {
	img *image.Gray
}

// NewSurface returns a white surface of the given dimensions.
func NewSurface(width, height int) *Surface {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return &Surface{img: img}
}

// Image returns the underlying pixel buffer.
func (s *Surface) Image() *image.Gray {
	return s.img
}

func (s *Surface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// Set sets a single pixel, ignoring out-of-bounds coordinates.
func (s *Surface) Set(x, y int, v uint8) {
	if !(image.Point{X: x, Y: y}).In(s.img.Bounds()) {
		return
	}
	s.img.SetGray(x, y, color.Gray{Y: v})
}

// FillRect fills the intersection of r with the surface.
func (s *Surface) FillRect(r image.Rectangle, v uint8) {
	r = r.Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(s.img, r, image.NewUniform(color.Gray{Y: v}), image.Point{}, draw.Src)
}

// Box draws a rectangle of the given outer dimensions at (x, y) with the
// given border thickness.  A border of at least half the smaller dimension
// produces a solid box.
func (s *Surface) Box(x, y, w, h, thickness int, v uint8) {
	if w < 1 || h < 1 {
		return
	}
	if thickness < 1 {
		thickness = 1
	}
	if 2*thickness >= min(w, h) {
		s.FillRect(image.Rect(x, y, x+w, y+h), v)
		return
	}
	s.FillRect(image.Rect(x, y, x+w, y+thickness), v)         // top
	s.FillRect(image.Rect(x, y+h-thickness, x+w, y+h), v)     // bottom
	s.FillRect(image.Rect(x, y, x+thickness, y+h), v)         // left
	s.FillRect(image.Rect(x+w-thickness, y, x+w, y+h), v)     // right
}

// RoundedBox draws a rectangle with rounded corners.  The fill-vs-stroke rule
// is the same as for Box.  Radius is clamped to half the smaller dimension.
func (s *Surface) RoundedBox(x, y, w, h, thickness, radius int, v uint8) {
	if w < 1 || h < 1 {
		return
	}
	if radius < 1 {
		s.Box(x, y, w, h, thickness, v)
		return
	}
	if radius > min(w, h)/2 {
		radius = min(w, h) / 2
	}
	if thickness < 1 {
		thickness = 1
	}
	solid := 2*thickness >= min(w, h)
	inner := radius - thickness
	if inner < 0 {
		inner = 0
	}
	for py := range h {
		for px := range w {
			if !insideRounded(px, py, w, h, radius) {
				continue
			}
			if solid || !insideRounded(px, py, w, h, radius,
				withInset(thickness, inner)) {
				s.Set(x+px, y+py, v)
			}
		}
	}
}

type roundedOpts struct {
	inset  int // shrink from every edge
	radius int // corner radius of the shrunk rectangle
}

func withInset(inset, radius int) func(*roundedOpts) {
	return func(o *roundedOpts) {
		o.inset = inset
		o.radius = radius
	}
}

// insideRounded reports whether the pixel (px, py), relative to the box
// origin, lies inside the rounded rectangle of size w x h.
func insideRounded(px, py, w, h, radius int, opt ...func(*roundedOpts)) bool {
	o := roundedOpts{radius: radius}
	for _, fn := range opt {
		fn(&o)
	}
	x0, y0 := o.inset, o.inset
	x1, y1 := w-o.inset-1, h-o.inset-1
	if px < x0 || px > x1 || py < y0 || py > y1 {
		return false
	}
	r := o.radius
	if r < 1 {
		return true
	}
	// corner centres
	cx0, cy0 := x0+r, y0+r
	cx1, cy1 := x1-r, y1-r
	var dx, dy int
	switch {
	case px < cx0 && py < cy0:
		dx, dy = cx0-px, cy0-py
	case px > cx1 && py < cy0:
		dx, dy = px-cx1, cy0-py
	case px < cx0 && py > cy1:
		dx, dy = cx0-px, py-cy1
	case px > cx1 && py > cy1:
		dx, dy = px-cx1, py-cy1
	default:
		return true
	}
	return dx*dx+dy*dy <= r*r
}

// Blit1bpp copies a packed 1-bit bitmap onto the surface at (x, y).  The data
// is row-major, rowBytes bytes per row, MSB first, and a zero bit paints a
// black pixel.  Pixels outside the surface are dropped.
func (s *Surface) Blit1bpp(x, y int, data []byte, rowBytes, rows int) {
	if rowBytes < 1 {
		return
	}
	for row := range rows {
		for bx := range rowBytes {
			i := row*rowBytes + bx
			if i >= len(data) {
				return
			}
			b := data[i]
			for bit := range 8 {
				if b&(1<<(7-bit)) == 0 {
					s.Set(x+bx*8+bit, y+row, Black)
				}
			}
		}
	}
}

// DrawImage draws img with its top-left corner at (x, y).
func (s *Surface) DrawImage(x, y int, img image.Image) {
	if img == nil {
		return
	}
	r := img.Bounds().Sub(img.Bounds().Min).Add(image.Point{X: x, Y: y})
	draw.Draw(s.img, r, img, img.Bounds().Min, draw.Over)
}
