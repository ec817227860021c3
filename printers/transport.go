// Package printers contains the wire protocol encoder and the chunked
// transport sender for the supported thermal label printer family.
package printers

import "errors"

var (
	// ErrNotConnected is returned when an operation requires an active
	// transport connection.
	ErrNotConnected = errors.New("printer is not connected")
)

// Transport is the byte channel to the printer.  Implementations may
// sub-chunk writes at a lower level, but the pacing policy of [Job] is
// authoritative.
type Transport interface {
	// IsConnected reports whether the transport can accept writes.
	IsConnected() bool
	// Write sends a single chunk to the printer.
	Write(p []byte) error
}
