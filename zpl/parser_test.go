package zpl

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(src string) []Record {
	return slices.Collect(Parse(src))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Record
	}{
		{
			name: "empty input",
			src:  "",
			want: nil,
		},
		{
			name: "no designators",
			src:  "plain text without commands",
			want: nil,
		},
		{
			name: "origin, data and field separator",
			src:  "^FO10,20^FDHi^FS",
			want: []Record{
				{Name: "FO", Params: "10,20"},
				{Name: "FD", Params: "Hi"},
				{Name: "FS", Params: ""},
			},
		},
		{
			name: "lowercase command names are folded",
			src:  "^fo5,5^fdx",
			want: []Record{
				{Name: "FO", Params: "5,5"},
				{Name: "FD", Params: "x"},
			},
		},
		{
			name: "tilde designator",
			src:  "~SD15",
			want: []Record{{Name: "SD", Params: "15"}},
		},
		{
			name: "single letter command stops at non-letter",
			src:  "^A0N,30,30",
			want: []Record{{Name: "A", Params: "0N,30,30"}},
		},
		{
			name: "stray designator is skipped",
			src:  "^^FDHi",
			want: []Record{{Name: "FD", Params: "Hi"}},
		},
		{
			name: "garbage between commands is ignored",
			src:  "junk^FDHi^ 123 ^FS",
			want: []Record{
				{Name: "FD", Params: "Hi"},
				{Name: "FS", Params: ""},
			},
		},
		{
			name: "params are trimmed",
			src:  "^FD  spaced out  ^FS",
			want: []Record{
				{Name: "FD", Params: "spaced out"},
				{Name: "FS", Params: ""},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collect(tt.src))
		})
	}
}

func TestParse_restartable(t *testing.T) {
	seq := Parse("^FO1,1^FDHi")
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
}

func TestParse_lazy(t *testing.T) {
	var n int
	for range Parse("^FO1,1^FDHi^FS") {
		n++
		if n == 1 {
			break
		}
	}
	assert.Equal(t, 1, n)
}
