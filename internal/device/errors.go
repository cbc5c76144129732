package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // handle unknown device id
//	}
var (
	// ErrNotFound is returned when a device ID does not exist.
	ErrNotFound = errors.New("device: not found")

	// ErrInvalidID is returned when a device ID is empty.
	ErrInvalidID = errors.New("device: invalid id")

	// ErrRegistryFull is returned when the paired-device cap is reached.
	ErrRegistryFull = errors.New("device: registry full")

	// ErrNotPairing is returned when completing or aborting a pairing
	// attempt on a device that is not in the pairing state.
	ErrNotPairing = errors.New("device: not pairing")
)
