package printers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchParameters_matches(t *testing.T) {
	tests := []struct {
		name    string
		sp      SearchParameters
		advName string
		advAddr string
		want    bool
	}{
		{
			name: "by name",
			sp:   SearchParameters{Name: "T02"},
			advName: "T02", advAddr: "AA:BB:CC:DD:EE:FF",
			want: true,
		},
		{
			name: "by mac",
			sp:   SearchParameters{MACAddress: "AA:BB:CC:DD:EE:FF"},
			advName: "whatever", advAddr: "AA:BB:CC:DD:EE:FF",
			want: true,
		},
		{
			name: "no match",
			sp:   SearchParameters{Name: "T02"},
			advName: "other", advAddr: "AA:BB:CC:DD:EE:FF",
			want: false,
		},
		{
			name: "empty name criterion does not match nameless advertisements",
			sp:   SearchParameters{MACAddress: "AA:BB:CC:DD:EE:FF"},
			advName: "", advAddr: "11:22:33:44:55:66",
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sp.matches(tt.advName, tt.advAddr))
		})
	}
}

func TestScanError(t *testing.T) {
	sp := SearchParameters{Name: "T02"}

	t.Run("found", func(t *testing.T) {
		assert.NoError(t, scanError(context.Background(), true, sp))
	})
	t.Run("not found", func(t *testing.T) {
		err := scanError(context.Background(), false, sp)
		assert.ErrorContains(t, err, "not found")
	})
	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := scanError(ctx, false, sp)
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorContains(t, err, "cancelled")
	})
	t.Run("cancellation wins over a late match", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, scanError(ctx, true, sp))
	})
}
