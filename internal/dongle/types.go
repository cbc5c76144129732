package dongle

import (
	"time"

	"github.com/wepower/iot-core/internal/device"
	"github.com/wepower/iot-core/internal/transport"
)

// Dongle is one radio adapter on a serial port.
//
// Dongles are owned by the Registry; the transport kind is fixed at
// registration and never changes for the lifetime of the entry.
type Dongle struct {
	// Port is the serial port path the adapter sits on.
	Port string

	// Kind is the radio technology the adapter speaks.
	Kind device.TransportKind

	// Provisional marks a classification guessed from the port name
	// rather than confirmed by an identification handshake.
	Provisional bool

	// Simulated marks an adapter running on the synthetic transport
	// because the physical port could not be opened.
	Simulated bool

	// Status mirrors the device lifecycle vocabulary for adapters
	// (disconnected / connected / error).
	Status device.Status

	// Active reports whether the scan loop should drive this adapter.
	Active bool

	// LastHeartbeat is when the heartbeat loop last saw the adapter active.
	LastHeartbeat *time.Time

	transport transport.LineTransport
}

// Info is the read-only view of a dongle handed to the scan loop.
type Info struct {
	Port        string
	Kind        device.TransportKind
	Provisional bool
	Simulated   bool
	Active      bool
}

// Snapshot is the published view of a dongle. Field names match the
// message bus contract.
type Snapshot struct {
	Port        string               `json:"port"`
	DeviceType  device.TransportKind `json:"device_type"`
	Status      device.Status        `json:"status"`
	DeviceCount int                  `json:"device_count"`
	Timestamp   string               `json:"timestamp"`
}

func (d *Dongle) info() Info {
	return Info{
		Port:        d.Port,
		Kind:        d.Kind,
		Provisional: d.Provisional,
		Simulated:   d.Simulated,
		Active:      d.Active,
	}
}

func (d *Dongle) snapshot(deviceCount int) Snapshot {
	return Snapshot{
		Port:        d.Port,
		DeviceType:  d.Kind,
		Status:      d.Status,
		DeviceCount: deviceCount,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}
