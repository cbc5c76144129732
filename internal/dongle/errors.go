package dongle

import "errors"

// Domain errors for the dongle package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, dongle.ErrUnclassified) {
//	    // Port answered but the reply matched no known adapter family
//	}
var (
	// ErrNotFound is returned when no dongle is registered on a port.
	ErrNotFound = errors.New("dongle: not found")

	// ErrNotConnected is returned for IO on a dongle that is not connected.
	ErrNotConnected = errors.New("dongle: not connected")

	// ErrUnclassified is returned when an identification reply matches no
	// known adapter family.
	ErrUnclassified = errors.New("dongle: unclassified response")

	// ErrNoResponse is returned when a probed port stays silent.
	ErrNoResponse = errors.New("dongle: no identification response")
)
