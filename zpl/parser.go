// Package zpl renders a subset of the ZPL label description language onto a
// drawing surface.
package zpl

import (
	"iter"
	"strings"
)

// designators start a command.
const designators = "^~"

// Record is a single parsed command: a 1-2 letter name and its raw,
// unvalidated parameter string.  Validation is per-command business of the
// interpreter.
type Record struct {
	Name   string
	Params string
}

// Parse tokenizes label markup into an ordered sequence of records.  The
// sequence is lazy and can be ranged over multiple times.  A command is a
// designator followed by one or two letters; everything up to the next
// designator is the parameter string.  Fragments that do not form a command
// are skipped.  Empty input yields an empty sequence.
func Parse(src string) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for i := 0; i < len(src); {
			j := strings.IndexAny(src[i:], designators)
			if j < 0 {
				return
			}
			i += j + 1
			var name strings.Builder
			for i < len(src) && name.Len() < 2 && isCommandLetter(src[i]) {
				name.WriteByte(toUpper(src[i]))
				i++
			}
			if name.Len() == 0 {
				continue // stray designator
			}
			end := strings.IndexAny(src[i:], designators)
			var params string
			if end < 0 {
				params, i = src[i:], len(src)
			} else {
				params, i = src[i:i+end], i+end
			}
			if !yield(Record{Name: name.String(), Params: strings.TrimSpace(params)}) {
				return
			}
		}
	}
}

func isCommandLetter(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

func toUpper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
