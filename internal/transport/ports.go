package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// Fixture ports used when simulation mode is on and no physical adapter
// ports are present.
var simFixturePorts = []string{"/dev/ttyUSB0", "/dev/ttyACM0"}

// enumeratePorts lists candidate serial ports. Overridable for tests.
var enumeratePorts = serial.GetPortsList

// ListPorts enumerates serial ports and applies the filter.
//
// With simulate set, an empty result (or an enumeration failure) falls back
// to the fixture ports so the rest of the pipeline can be exercised without
// hardware. Fixture ports go through the same filter as real ones. Without
// simulate, enumeration failures are returned as errors and an empty result
// is an empty result.
//
// Parameters:
//   - filter: Include/exclude port filter
//   - simulate: Whether simulation mode is enabled
//
// Returns:
//   - []string: Candidate port paths, in enumeration order
//   - error: Wrapped ErrUnavailable if enumeration fails (simulate off)
func ListPorts(filter Filter, simulate bool) ([]string, error) {
	ports, err := enumeratePorts()
	if err != nil {
		if simulate {
			return filter.Apply(simFixturePorts), nil
		}
		return nil, fmt.Errorf("%w: enumerating ports: %w", ErrUnavailable, err)
	}

	matched := filter.Apply(ports)
	if len(matched) == 0 && simulate {
		return filter.Apply(simFixturePorts), nil
	}
	return matched, nil
}
