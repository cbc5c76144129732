package transport

import "errors"

// Sentinel errors for transport operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, transport.ErrUnavailable) {
//	    // Fall back to the simulated transport
//	}
var (
	// ErrUnavailable indicates a serial port could not be opened or enumerated.
	ErrUnavailable = errors.New("transport: unavailable")

	// ErrClosed indicates an operation on a closed transport.
	ErrClosed = errors.New("transport: closed")

	// ErrWriteFailed indicates a line could not be written to the port.
	ErrWriteFailed = errors.New("transport: write failed")
)
