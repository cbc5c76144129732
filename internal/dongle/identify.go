package dongle

import (
	"strings"
	"time"

	"github.com/wepower/iot-core/internal/device"
	"github.com/wepower/iot-core/internal/transport"
)

// probeSettle is how long an adapter gets to assemble its reply after the
// identification probe before the first read.
const probeSettle = 100 * time.Millisecond

// Classify maps an identification reply to a transport kind.
//
// Matching is case-insensitive substring, checked in order of specificity;
// "dongle"/"device" with no family keyword lands on the generic kind.
func Classify(response string) (device.TransportKind, error) {
	r := strings.ToLower(response)

	switch {
	case strings.Contains(r, "ble"), strings.Contains(r, "bluetooth"):
		return device.KindBLE, nil
	case strings.Contains(r, "zigbee"), strings.Contains(r, "zig"):
		return device.KindZigbee, nil
	case strings.Contains(r, "zwave"), strings.Contains(r, "zw"):
		return device.KindZWave, nil
	case strings.Contains(r, "matter"):
		return device.KindMatter, nil
	case strings.Contains(r, "dongle"), strings.Contains(r, "device"):
		return device.KindGeneric, nil
	default:
		return device.KindUnknown, ErrUnclassified
	}
}

// Identify performs the identification handshake on an open transport:
// send the probe, give the adapter a moment to answer, read one line and
// classify it.
//
// Returns ErrNoResponse for a silent port and ErrUnclassified for a reply
// that matches no known family. Either way the port may still be usable;
// callers decide whether to fall back to a port-name guess.
func Identify(t transport.LineTransport, probe string) (device.TransportKind, error) {
	if err := t.SendLine(probe); err != nil {
		return device.KindUnknown, err
	}

	time.Sleep(probeSettle)

	line, ok, err := t.ReadLine()
	if err != nil {
		return device.KindUnknown, err
	}
	if !ok {
		return device.KindUnknown, ErrNoResponse
	}

	return Classify(line)
}

// GuessFromPort derives a provisional transport kind from the port name.
// USB serial adapters are overwhelmingly BLE sticks in this deployment and
// CDC-ACM ports are Zigbee coordinators; anything else stays unknown.
func GuessFromPort(port string) (device.TransportKind, bool) {
	switch {
	case strings.Contains(port, "ttyUSB"):
		return device.KindBLE, true
	case strings.Contains(port, "ttyACM"):
		return device.KindZigbee, true
	default:
		return device.KindUnknown, false
	}
}
