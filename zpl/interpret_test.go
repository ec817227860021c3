package zpl

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusq/labelprint/bitmap"
)

func render(t *testing.T, src string, w, h int) (*bitmap.Surface, []string) {
	t.Helper()
	return Interpret(Parse(src), w, h)
}

func blackAt(s *bitmap.Surface, x, y int) bool {
	return s.Image().GrayAt(x, y).Y < 128
}

func TestInterpret_unknownCommand(t *testing.T) {
	in := &interp{sfc: bitmap.NewSurface(8, 8), st: defaultState()}
	before := in.st

	err := in.exec(Record{Name: "XQ", Params: "whatever"})
	require.Error(t, err)
	assert.Equal(t, before.cursor, in.st.cursor)
	assert.Equal(t, before.fontID, in.st.fontID)
	assert.Equal(t, before.rotation, in.st.rotation)

	_, diags := render(t, "^XA^XQ1,2^XZ", 8, 8)
	assert.Len(t, diags, 1)
	assert.Contains(t, diags[0], "XQ:")
}

func TestInterpret_fieldOrigin(t *testing.T) {
	in := &interp{sfc: bitmap.NewSurface(64, 64), st: defaultState()}
	require.NoError(t, in.exec(Record{Name: "FR"}))
	require.NoError(t, in.exec(Record{Name: "FO", Params: "10,20"}))
	assert.Equal(t, image.Point{X: 10, Y: 20}, in.st.cursor)
	assert.False(t, in.st.reverse, "field origin must clear reverse print")

	// malformed coordinates default to zero
	require.NoError(t, in.exec(Record{Name: "FO", Params: "abc,-4"}))
	assert.Equal(t, image.Point{}, in.st.cursor)
}

func TestInterpret_graphicBox(t *testing.T) {
	// 40x30mm at 8 dpmm: 320x240 label with a 100x50 box, 5px stroke.
	sfc, diags := render(t, "^XA^FO10,10^GB100,50,5^FS^XZ", 320, 240)
	assert.Empty(t, diags)

	mono := bitmap.ToMono(sfc.Image(), false)
	assert.Equal(t, bitmap.RowBytes(320)*240, len(mono))
	assert.Equal(t, 9600, len(mono))

	assert.True(t, blackAt(sfc, 10, 10), "border origin")
	assert.True(t, blackAt(sfc, 109, 59), "far border corner")
	assert.True(t, blackAt(sfc, 12, 35), "left stroke")
	assert.False(t, blackAt(sfc, 60, 35), "interior of a stroked box")
	assert.False(t, blackAt(sfc, 9, 9), "outside the box")
}

func TestInterpret_fieldData(t *testing.T) {
	t.Run("draws at the cursor", func(t *testing.T) {
		sfc, diags := render(t, "^XA^FO0,0^FDHi^FS^XZ", 64, 32)
		assert.Empty(t, diags)
		var found bool
		for y := 0; y < 32 && !found; y++ {
			for x := 0; x < 64 && !found; x++ {
				found = blackAt(sfc, x, y)
			}
		}
		assert.True(t, found, "no pixels drawn for text field")
	})
	t.Run("escape sequences", func(t *testing.T) {
		assert.Equal(t, `&`, unescaper.Replace(`\&`))
		assert.Equal(t, `\`, unescaper.Replace(`\\`))
		assert.Equal(t, `a&b\c`, unescaper.Replace(`a\&b\\c`))
	})
	t.Run("reverse print boxes the field and clears the flag", func(t *testing.T) {
		in := &interp{sfc: bitmap.NewSurface(96, 48), st: defaultState()}
		require.NoError(t, in.exec(Record{Name: "FR"}))
		require.NoError(t, in.exec(Record{Name: "FD", Params: "X"}))
		assert.False(t, in.st.reverse)
		// the boxed background at the cursor is black
		assert.True(t, blackAt(in.sfc, 0, 0))
	})
	t.Run("empty field is a no-op", func(t *testing.T) {
		_, diags := render(t, "^FD^FS", 16, 16)
		assert.Empty(t, diags)
	})
}

func TestInterpret_fontSelection(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		id   string
		rot  Rotation
		h, w int
	}{
		{
			name: "one letter form with id in params",
			rec:  Record{Name: "A", Params: "0N,30,30"},
			id:   "0", rot: Rot0, h: 30, w: 30,
		},
		{
			name: "two letter form",
			rec:  Record{Name: "AD", Params: "R,18,10"},
			id:   "D", rot: Rot90, h: 18, w: 10,
		},
		{
			name: "width defaults to height",
			rec:  Record{Name: "A", Params: "1B,24"},
			id:   "1", rot: Rot270, h: 24, w: 24,
		},
		{
			name: "no orientation keeps current rotation",
			rec:  Record{Name: "A", Params: "2,16"},
			id:   "2", rot: Rot0, h: 16, w: 16,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &interp{sfc: bitmap.NewSurface(8, 8), st: defaultState()}
			require.NoError(t, in.exec(tt.rec))
			assert.Equal(t, tt.id, in.st.fontID)
			assert.Equal(t, tt.rot, in.st.rotation)
			assert.Equal(t, tt.h, in.st.fontH)
			assert.Equal(t, tt.w, in.st.fontW)
		})
	}

	t.Run("unknown font keeps state", func(t *testing.T) {
		in := &interp{sfc: bitmap.NewSurface(8, 8), st: defaultState()}
		err := in.exec(Record{Name: "A", Params: "ZN,10"})
		require.Error(t, err)
		assert.Equal(t, DefaultFontID, in.st.fontID)
	})
}

func TestInterpret_changeFont(t *testing.T) {
	in := &interp{sfc: bitmap.NewSurface(8, 8), st: defaultState()}
	require.NoError(t, in.exec(Record{Name: "CF", Params: "1,20"}))
	assert.Equal(t, "1", in.st.fontID)
	assert.Equal(t, 20, in.st.fontH)
	assert.Equal(t, 20, in.st.fontW)
}

func TestInterpret_graphicField(t *testing.T) {
	t.Run("compressed", func(t *testing.T) {
		// 2 rows of 1 byte: first all black, second all white.
		in := &interp{sfc: bitmap.NewSurface(8, 2), st: defaultState()}
		require.NoError(t, in.exec(Record{Name: "GF", Params: "C,2,2,1,G0GF"}))
		for x := range 8 {
			assert.True(t, blackAt(in.sfc, x, 0), "row 0 x=%d", x)
			assert.False(t, blackAt(in.sfc, x, 1), "row 1 x=%d", x)
		}
	})
	t.Run("hex ascii", func(t *testing.T) {
		in := &interp{sfc: bitmap.NewSurface(8, 1), st: defaultState()}
		require.NoError(t, in.exec(Record{Name: "GF", Params: "A,1,1,1,7F"}))
		assert.True(t, blackAt(in.sfc, 0, 0))
		assert.False(t, blackAt(in.sfc, 1, 0))
	})
	t.Run("missing data", func(t *testing.T) {
		in := &interp{sfc: bitmap.NewSurface(8, 1), st: defaultState()}
		assert.Error(t, in.exec(Record{Name: "GF", Params: "A,1,1"}))
	})
}

func TestInterpret_barcodeState(t *testing.T) {
	in := &interp{sfc: bitmap.NewSurface(64, 64), st: defaultState()}
	require.NoError(t, in.exec(Record{Name: "BY", Params: "3,2.5,40"}))
	assert.Equal(t, 3, in.st.barModule)
	assert.Equal(t, 2.5, in.st.barRatio)
	assert.Equal(t, 40, in.st.barHeight)

	require.NoError(t, in.exec(Record{Name: "FO", Params: "5,6"}))
	require.NoError(t, in.exec(Record{Name: "BC", Params: "N,50,Y,N,N"}))
	require.NotNil(t, in.st.pending)
	assert.Equal(t, BarcodeCode128, in.st.pending.Kind)
	assert.Equal(t, 50, in.st.pending.Height)
	assert.Equal(t, 3, in.st.pending.ModuleWidth)
	assert.Equal(t, image.Point{X: 5, Y: 6}, in.st.pending.Pos)

	// the following data command leaves the descriptor unconsumed
	require.NoError(t, in.exec(Record{Name: "FD", Params: "12345"}))
	assert.NotNil(t, in.st.pending)
}

func TestInterpret_rotationAndHome(t *testing.T) {
	in := &interp{sfc: bitmap.NewSurface(8, 8), st: defaultState()}
	require.NoError(t, in.exec(Record{Name: "FW", Params: "I"}))
	assert.Equal(t, Rot180, in.st.rotation)
	assert.Error(t, in.exec(Record{Name: "FW", Params: "Q"}))

	require.NoError(t, in.exec(Record{Name: "LH", Params: "30,40"}))
	assert.Equal(t, image.Point{X: 30, Y: 40}, in.st.home)
}

func TestInterpret_freshStatePerRender(t *testing.T) {
	// A render leaving the cursor far from origin must not leak into the
	// next render.
	_, diags := render(t, "^FO100,100^FW R^FR", 128, 128)
	assert.Empty(t, diags)
	sfc, diags := render(t, "^FO0,0^GB8,8,4^FS", 128, 128)
	assert.Empty(t, diags)
	assert.True(t, blackAt(sfc, 0, 0), "box must draw at origin, not at leaked cursor")
	assert.False(t, blackAt(sfc, 100, 100))
}
