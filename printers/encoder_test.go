package printers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRaster(t *testing.T) {
	t.Run("stream layout", func(t *testing.T) {
		// 16x2 bitmap, all white.
		mono := []byte{0xFF, 0xFF, 0xFF, 0xFF}
		got, err := EncodeRaster(mono, 16, 2)
		require.NoError(t, err)

		want := []byte{
			0x1B, '@',            // init
			0x1B, '3', 0x00,      // line spacing
			0x1D, 'v', '0', 0x00, // raster mode
			0x02, 0x00, // row bytes, little endian
			0x02, 0x00, // height, little endian
			0x00, 0x00, 0x00, 0x00, // inverted bitmap: white becomes 0
			0x1B, 'J', 80, // feed 10mm at 8 dots/mm
		}
		assert.Equal(t, want, got)
	})
	t.Run("polarity round trip", func(t *testing.T) {
		mono := []byte{0xA5, 0x3C, 0x00, 0xFF}
		got, err := EncodeRaster(mono, 32, 1)
		require.NoError(t, err)
		body := got[13 : 13+len(mono)]
		for i, b := range body {
			assert.Equal(t, mono[i], b^0xFF, "byte %d", i)
		}
	})
	t.Run("wide bitmaps are rejected", func(t *testing.T) {
		_, err := EncodeRaster(make([]byte, 49), 392, 1)
		assert.Error(t, err)
	})
	t.Run("length mismatch is rejected", func(t *testing.T) {
		_, err := EncodeRaster(make([]byte, 3), 16, 2)
		assert.Error(t, err)
	})
	t.Run("multi byte dimensions little endian", func(t *testing.T) {
		const w, h = 384, 300
		mono := make([]byte, 48*h)
		got, err := EncodeRaster(mono, w, h)
		require.NoError(t, err)
		assert.Equal(t, byte(48), got[9])
		assert.Equal(t, byte(0), got[10])
		assert.Equal(t, byte(300&0xFF), got[11])
		assert.Equal(t, byte(300>>8), got[12])
	})
}

func TestEncodeFeed(t *testing.T) {
	tests := []struct {
		name string
		mm   int
		want byte
	}{
		{"typical", 10, 80},
		{"zero", 0, 0},
		{"negative clamps to zero", -5, 0},
		{"clamps to operand range", 40, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeFeed(tt.mm)
			require.Len(t, got, 3)
			assert.Equal(t, []byte{0x1B, 'J', tt.want}, got)
		})
	}
}
