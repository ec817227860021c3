package zpl

// Run-length counts used by the compressed graphic-field encoding.  'G'..'Y'
// encode repeat counts 1..19, 'g'..'z' encode 20, 40, .. 400; consecutive
// count characters accumulate, so "zY" means 419.  The counted character is a
// single hex digit whose value fills both nibbles of the output byte.  Plain
// hex digit pairs are literal bytes, anything else is skipped.

// DecompressHex decodes a compressed graphic field into at most total bytes.
// Decoding stops when total bytes have been produced or the input runs out.
func DecompressHex(data string, total int) []byte {
	if total < 0 {
		total = 0
	}
	out := make([]byte, 0, total)
	var (
		repeat int  // pending run-length count
		hi     byte // first nibble of a literal pair
		haveHi bool
	)
	for i := 0; i < len(data) && len(out) < total; i++ {
		c := data[i]
		switch {
		case 'G' <= c && c <= 'Y':
			repeat += int(c-'G') + 1
			haveHi = false
		case 'g' <= c && c <= 'z':
			repeat += (int(c-'g') + 1) * 20
			haveHi = false
		default:
			nib, ok := hexNibble(c)
			if !ok {
				continue
			}
			if repeat > 0 {
				b := nib<<4 | nib
				for range repeat {
					if len(out) >= total {
						break
					}
					out = append(out, b)
				}
				repeat = 0
				continue
			}
			if !haveHi {
				hi, haveHi = nib, true
				continue
			}
			out = append(out, hi<<4|nib)
			haveHi = false
		}
	}
	return out
}

// decodeHexASCII decodes a plain hex-ASCII graphic field, skipping any
// non-hex characters, into at most total bytes.
func decodeHexASCII(data string, total int) []byte {
	if total < 0 {
		total = 0
	}
	out := make([]byte, 0, total)
	var (
		hi     byte
		haveHi bool
	)
	for i := 0; i < len(data) && len(out) < total; i++ {
		nib, ok := hexNibble(data[i])
		if !ok {
			continue
		}
		if !haveHi {
			hi, haveHi = nib, true
			continue
		}
		out = append(out, hi<<4|nib)
		haveHi = false
	}
	return out
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
