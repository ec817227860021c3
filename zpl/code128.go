package zpl

import "fmt"

// Code 128 subset B module patterns for the characters space through 'Z'.
// Each entry is the bar/space width sequence of one 11-module symbol,
// alternating bar first.
var code128B = [...]string{
	"212222", "222122", "222221", "121223", "121322", "131222", "122213",
	"122312", "132212", "221213", "221312", "231212", "112232", "122132",
	"122231", "113222", "123122", "123221", "223211", "221132", "221231",
	"213212", "223112", "312131", "311222", "321122", "321221", "312212",
	"322112", "322211", "212123", "212321", "232121", "111323", "131123",
	"131321", "112313", "132113", "132311", "211313", "231113", "231311",
	"112133", "112331", "132131", "113123", "113321", "133121", "313121",
	"211331", "231131", "213113", "213311", "213131", "311123", "311321",
	"331121", "312113", "312311",
}

const (
	code128StartB = "211214"  // start code B, 11 modules
	code128Stop   = "2331112" // stop pattern incl. termination bar, 13 modules
)

// EncodeCode128B encodes s as a sequence of Code 128 subset B modules, true
// for a bar module and false for a space.  The supported character range is
// space through 'Z'.  The encoding is start pattern, one symbol per
// character, stop pattern; no quiet zones are included.
func EncodeCode128B(s string) ([]bool, error) {
	modules := appendWidths(nil, code128StartB)
	for i := range len(s) {
		c := s[i]
		if c < ' ' || c > 'Z' {
			return nil, fmt.Errorf("character %q not encodable in subset B range", c)
		}
		modules = appendWidths(modules, code128B[c-' '])
	}
	return appendWidths(modules, code128Stop), nil
}

// appendWidths expands a width sequence into modules, bars and spaces
// alternating starting with a bar.
func appendWidths(modules []bool, widths string) []bool {
	for i := range len(widths) {
		bar := i%2 == 0
		for range int(widths[i] - '0') {
			modules = append(modules, bar)
		}
	}
	return modules
}
