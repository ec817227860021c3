package zpl

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/rusq/labelprint/bitmap"
)

// Rotation is a field rotation in 90 degree steps, clockwise.
type Rotation int

const (
	Rot0 Rotation = iota
	Rot90
	Rot180
	Rot270
)

// rotationOf maps an orientation letter to a rotation.
func rotationOf(c byte) (Rotation, bool) {
	switch toUpper(c) {
	case 'N':
		return Rot0, true
	case 'R':
		return Rot90, true
	case 'I':
		return Rot180, true
	case 'B':
		return Rot270, true
	}
	return Rot0, false
}

// BarcodeKind discriminates pending barcode descriptors.
type BarcodeKind int

const (
	BarcodeCode128 BarcodeKind = iota
	BarcodeQR
)

// Barcode records the parameters of a barcode command awaiting its data
// payload.  The data command does not currently consume it; the descriptor
// is kept so the wiring can be completed without reparsing.
type Barcode struct {
	Kind        BarcodeKind
	Rotation    Rotation
	Height      int
	ModuleWidth int
	Ratio       float64
	Pos         image.Point
}

// renderState is the mutable interpreter state.  A fresh value is created
// for every render call; it is never shared.
type renderState struct {
	cursor   image.Point
	fontID   string
	face     font.Face
	fontH    int // requested glyph height in dots, 0 = native
	fontW    int // requested glyph width in dots, 0 = follow height
	rotation Rotation
	reverse  bool // auto-resets after each text field

	barModule int
	barRatio  float64
	barHeight int
	pending   *Barcode

	home image.Point // stored label-home offset
}

func defaultState() renderState {
	face, err := Face(DefaultFontID)
	if err != nil {
		panic(fmt.Errorf("default font %q: %w", DefaultFontID, err))
	}
	return renderState{
		fontID:    DefaultFontID,
		face:      face,
		barModule: 2,
		barRatio:  3.0,
		barHeight: 10,
	}
}

type interp struct {
	sfc   *bitmap.Surface
	st    renderState
	diags []string
}

// Interpret executes parsed records against a fresh surface of the given
// dimensions.  Rendering is best-effort: a failing record is recorded as a
// diagnostic and processing continues.  The returned diagnostics are in
// record order.
func Interpret(records iter.Seq[Record], width, height int) (*bitmap.Surface, []string) {
	in := &interp{
		sfc: bitmap.NewSurface(width, height),
		st:  defaultState(),
	}
	for rec := range records {
		if err := in.exec(rec); err != nil {
			in.diags = append(in.diags, fmt.Sprintf("%s: %v", rec.Name, err))
			slog.Debug("record failed", "command", rec.Name, "error", err)
		}
	}
	return in.sfc, in.diags
}

func (in *interp) exec(rec Record) error {
	switch rec.Name {
	case "XA", "XZ", "FS": // format and field markers
		return nil
	case "FO":
		in.fieldOrigin(rec.Params)
	case "CF":
		return in.changeFont(rec.Params)
	case "FD":
		return in.fieldData(rec.Params)
	case "GB":
		return in.graphicBox(rec.Params)
	case "GF":
		return in.graphicField(rec.Params)
	case "BY":
		in.barcodeDefaults(rec.Params)
	case "BC":
		in.setBarcode(BarcodeCode128, rec.Params)
	case "BQ":
		in.setBarcode(BarcodeQR, rec.Params)
	case "FR":
		in.st.reverse = true
	case "LH":
		in.labelHome(rec.Params)
	case "FW":
		return in.fieldOrientation(rec.Params)
	default:
		if rec.Name[0] == 'A' {
			return in.selectFont(rec.Name, rec.Params)
		}
		return errors.New("unknown command")
	}
	return nil
}

// fieldOrigin moves the cursor and clears the reverse-print flag.  Malformed
// coordinates default to zero.
func (in *interp) fieldOrigin(params string) {
	parts := splitParams(params)
	in.st.cursor = image.Point{
		X: max(atoiDef(parts, 0, 0), 0),
		Y: max(atoiDef(parts, 1, 0), 0),
	}
	in.st.reverse = false
}

// selectFont handles the A command in both spellings: a one-letter name with
// the font id leading the parameters, or a two-letter name carrying the id.
func (in *interp) selectFont(name, params string) error {
	id := ""
	if len(name) == 2 {
		id = string(name[1])
	}
	p := params
	if id == "" {
		if p == "" {
			return errors.New("missing font identifier")
		}
		id = strings.ToUpper(string(p[0]))
		p = p[1:]
	}
	rot := in.st.rotation
	if p != "" {
		if r, ok := rotationOf(p[0]); ok {
			rot = r
			p = p[1:]
		}
	}
	parts := splitParams(strings.TrimPrefix(p, ","))
	h := atoiDef(parts, 0, 0)
	w := atoiDef(parts, 1, h)

	var (
		face font.Face
		err  error
	)
	if id == "@" {
		file := ""
		if len(parts) > 2 {
			file = parts[2]
		}
		if file == "" {
			return errors.New("missing font file")
		}
		size := float64(h)
		if size == 0 {
			size = 12
		}
		face, err = LoadFontFile(file, size, 72)
	} else {
		face, err = Face(id)
	}
	if err != nil {
		return err
	}
	in.st.fontID = id
	in.st.face = face
	in.st.rotation = rot
	in.st.fontH = h
	in.st.fontW = w
	return nil
}

// changeFont handles the CF default-font command: id, height, width.
func (in *interp) changeFont(params string) error {
	if params == "" {
		return errors.New("missing font identifier")
	}
	id := strings.ToUpper(string(params[0]))
	face, err := Face(id)
	if err != nil {
		return err
	}
	parts := splitParams(strings.TrimPrefix(params[1:], ","))
	in.st.fontID = id
	in.st.face = face
	in.st.fontH = atoiDef(parts, 0, 0)
	in.st.fontW = atoiDef(parts, 1, in.st.fontH)
	return nil
}

var unescaper = strings.NewReplacer(`\\`, `\`, `\&`, "&")

// fieldData draws the field text at the cursor.  The reverse-print flag is
// consumed whether or not drawing succeeds.
func (in *interp) fieldData(params string) error {
	reverse := in.st.reverse
	in.st.reverse = false

	text := unescaper.Replace(params)
	if text == "" {
		return nil
	}
	img, err := in.renderText(text)
	if err != nil {
		return err
	}
	at := in.st.cursor
	if reverse {
		const margin = 3
		b := img.Bounds()
		in.sfc.FillRect(image.Rect(at.X, at.Y,
			at.X+b.Dx()+2*margin, at.Y+b.Dy()+2*margin), bitmap.Black)
		in.sfc.DrawImage(at.X+margin, at.Y+margin, imaging.Invert(img))
		return nil
	}
	in.sfc.DrawImage(at.X, at.Y, img)
	return nil
}

// renderText rasterizes text with the active font, magnification and
// rotation, returning an opaque black-on-white image.
func (in *interp) renderText(text string) (image.Image, error) {
	face := in.st.face
	if face == nil {
		return nil, errors.New("no font selected")
	}
	metrics := face.Metrics()
	w := font.MeasureString(face, text).Ceil()
	h := metrics.Height.Ceil()
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("degenerate text box %dx%d", w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	d := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	d.DrawString(text)

	var out image.Image = img
	if in.st.fontH > 0 {
		sy := float64(in.st.fontH) / float64(h)
		sx := sy
		if in.st.fontW > 0 {
			cell := font.MeasureString(face, "W").Ceil()
			if cell > 0 {
				sx = float64(in.st.fontW) / float64(cell)
			}
		}
		out = bitmap.Magnify(out, sx, sy)
	}
	switch in.st.rotation {
	case Rot90:
		out = imaging.Rotate270(out)
	case Rot180:
		out = imaging.Rotate180(out)
	case Rot270:
		out = imaging.Rotate90(out)
	}
	return out, nil
}

// graphicBox draws a rectangle at the cursor: width, height, border
// thickness, line colour (B/W) and corner rounding 0-8.
func (in *interp) graphicBox(params string) error {
	parts := splitParams(params)
	t := atoiDef(parts, 2, 1)
	w := atoiDef(parts, 0, t)
	h := atoiDef(parts, 1, t)
	if w < 1 || h < 1 {
		return fmt.Errorf("degenerate box %dx%d", w, h)
	}
	shade := bitmap.Black
	if len(parts) > 3 && strings.EqualFold(parts[3], "W") {
		shade = bitmap.White
	}
	r := min(max(atoiDef(parts, 4, 0), 0), 8)
	at := in.st.cursor
	if r > 0 {
		radius := r * min(w, h) / 16
		in.sfc.RoundedBox(at.X, at.Y, w, h, t, radius, shade)
	} else {
		in.sfc.Box(at.X, at.Y, w, h, t, shade)
	}
	return nil
}

// graphicField blits an inline 1-bit image at the cursor.  Encodings:
// A = hex ASCII, B = raw bytes, C = compressed hex.
func (in *interp) graphicField(params string) error {
	parts := strings.SplitN(params, ",", 5)
	if len(parts) < 5 {
		return errors.New("missing graphic data")
	}
	format := strings.ToUpper(strings.TrimSpace(parts[0]))
	total, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || total < 1 {
		return fmt.Errorf("invalid byte count %q", parts[2])
	}
	rowBytes, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil || rowBytes < 1 {
		return fmt.Errorf("invalid row length %q", parts[3])
	}
	var data []byte
	switch format {
	case "A":
		data = decodeHexASCII(parts[4], total)
	case "B":
		raw := []byte(parts[4])
		if len(raw) > total {
			raw = raw[:total]
		}
		data = raw
	case "C":
		data = DecompressHex(parts[4], total)
	default:
		return fmt.Errorf("unsupported encoding %q", format)
	}
	rows := (len(data) + rowBytes - 1) / rowBytes
	in.sfc.Blit1bpp(in.st.cursor.X, in.st.cursor.Y, data, rowBytes, rows)
	return nil
}

// barcodeDefaults sets module width, wide-to-narrow ratio and height used by
// subsequent barcode commands.
func (in *interp) barcodeDefaults(params string) {
	parts := splitParams(params)
	if v := atoiDef(parts, 0, in.st.barModule); 1 <= v && v <= 10 {
		in.st.barModule = v
	}
	if len(parts) > 1 {
		if r, err := strconv.ParseFloat(parts[1], 64); err == nil && 2.0 <= r && r <= 3.0 {
			in.st.barRatio = r
		}
	}
	if v := atoiDef(parts, 2, in.st.barHeight); v > 0 {
		in.st.barHeight = v
	}
}

// setBarcode records a pending barcode descriptor.  Drawing would require
// the following data command to consume it, which the reference behaviour
// does not do; the descriptor is retained, not rendered.
func (in *interp) setBarcode(kind BarcodeKind, params string) {
	rot := in.st.rotation
	rest := params
	if rest != "" {
		if r, ok := rotationOf(rest[0]); ok {
			rot = r
			rest = rest[1:]
		}
	}
	parts := splitParams(strings.TrimPrefix(rest, ","))
	in.st.pending = &Barcode{
		Kind:        kind,
		Rotation:    rot,
		Height:      max(atoiDef(parts, 0, in.st.barHeight), 1),
		ModuleWidth: in.st.barModule,
		Ratio:       in.st.barRatio,
		Pos:         in.st.cursor,
	}
}

// labelHome stores the label home offset.  The offset is recorded but not
// applied to drawing.
func (in *interp) labelHome(params string) {
	parts := splitParams(params)
	in.st.home = image.Point{
		X: max(atoiDef(parts, 0, 0), 0),
		Y: max(atoiDef(parts, 1, 0), 0),
	}
}

func (in *interp) fieldOrientation(params string) error {
	if params == "" {
		return errors.New("missing orientation")
	}
	r, ok := rotationOf(params[0])
	if !ok {
		return fmt.Errorf("invalid orientation %q", params[0])
	}
	in.st.rotation = r
	return nil
}

func splitParams(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// atoiDef returns the i-th parameter as an integer, or def if it is missing
// or malformed.
func atoiDef(parts []string, i, def int) int {
	if i >= len(parts) || parts[i] == "" {
		return def
	}
	v, err := strconv.Atoi(parts[i])
	if err != nil {
		return def
	}
	return v
}
