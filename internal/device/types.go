package device

import "time"

// TransportKind identifies the radio technology a device or adapter speaks.
type TransportKind string

// TransportKind constants.
const (
	KindUnknown TransportKind = "unknown"
	KindBLE     TransportKind = "ble"
	KindZigbee  TransportKind = "zigbee"
	KindZWave   TransportKind = "zwave"
	KindMatter  TransportKind = "matter"
	KindGeneric TransportKind = "generic"
)

// AllTransportKinds returns all valid transport kind values.
func AllTransportKinds() []TransportKind {
	return []TransportKind{
		KindUnknown, KindBLE, KindZigbee, KindZWave, KindMatter, KindGeneric,
	}
}

// ParseTransportKind converts a wire string to a TransportKind.
// Unrecognised values fall back to KindUnknown rather than erroring;
// manual input from the control plane is lenient by design of the topic
// contract.
func ParseTransportKind(s string) TransportKind {
	for _, k := range AllTransportKinds() {
		if s == string(k) {
			return k
		}
	}
	return KindUnknown
}

// Status is a device lifecycle state.
//
// The lifecycle is Disconnected → Connecting → Connected → Identified →
// Paired, with Offline, Pairing and Error reachable from the middle states.
// No state is terminal: an Offline device returns to Connected when it is
// seen in a scan again, and a failed pairing attempt reverts to the state
// the device held before pairing started.
type Status string

// Status constants.
const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusIdentified   Status = "identified"
	StatusPaired       Status = "paired"
	StatusPairing      Status = "pairing"
	StatusOffline      Status = "offline"
	StatusError        Status = "error"
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{
		StatusDisconnected, StatusConnecting, StatusConnected, StatusIdentified,
		StatusPaired, StatusPairing, StatusOffline, StatusError,
	}
}

// ParseStatus converts a wire string to a Status, falling back to
// StatusDisconnected for unrecognised values.
func ParseStatus(s string) Status {
	for _, st := range AllStatuses() {
		if s == string(st) {
			return st
		}
	}
	return StatusDisconnected
}

// Category is the functional class of an end device.
type Category string

// Category constants.
const (
	CategoryUnknown Category = "unknown"
	CategorySensor  Category = "sensor"
	CategorySwitch  Category = "switch"
	CategoryLight   Category = "light"
	CategoryDoor    Category = "door"
	CategoryToggle  Category = "toggle"
)

// AllCategories returns all valid category values.
func AllCategories() []Category {
	return []Category{
		CategoryUnknown, CategorySensor, CategorySwitch, CategoryLight,
		CategoryDoor, CategoryToggle,
	}
}

// ParseCategory converts a wire string to a Category, falling back to
// CategoryUnknown for unrecognised values.
func ParseCategory(s string) Category {
	for _, c := range AllCategories() {
		if s == string(c) {
			return c
		}
	}
	return CategoryUnknown
}

// DiscoveryMode selects how a BLE device is brought into the network.
type DiscoveryMode string

// DiscoveryMode constants.
const (
	// DiscoveryManual (v0): the operator enters device details by hand.
	DiscoveryManual DiscoveryMode = "v0_manual"

	// DiscoveryAuto (v1): the device performs a network key exchange.
	DiscoveryAuto DiscoveryMode = "v1_auto"
)

// ParseDiscoveryMode converts a wire string to a DiscoveryMode, falling
// back to DiscoveryManual for unrecognised values.
func ParseDiscoveryMode(s string) DiscoveryMode {
	if s == string(DiscoveryAuto) {
		return DiscoveryAuto
	}
	return DiscoveryManual
}

// Device is one tracked end device reachable through an adapter.
//
// Devices are owned by the Registry; callers outside the package see
// Snapshot copies, never the live struct.
type Device struct {
	ID            string
	Kind          TransportKind
	Port          string
	Status        Status
	Category      Category
	LastSeen      *time.Time
	Properties    map[string]any
	DiscoveryMode DiscoveryMode
	Paired        bool

	// missCount counts consecutive scan ticks this device was not seen in.
	missCount int

	// priorStatus is the state to revert to if a pairing attempt times out.
	priorStatus Status
}

// Snapshot is the published view of a device. Field names match the
// message bus contract.
type Snapshot struct {
	DeviceID      string         `json:"device_id"`
	DeviceType    TransportKind  `json:"device_type"`
	Port          string         `json:"port"`
	Status        Status         `json:"status"`
	Category      Category       `json:"category"`
	LastSeen      *string        `json:"last_seen"`
	Properties    map[string]any `json:"properties"`
	DiscoveryMode DiscoveryMode  `json:"ble_discovery_mode"`
	PairingStatus bool           `json:"pairing_status"`
}

// snapshot builds the published view of the device. Properties are copied
// so the snapshot stays stable after the registry mutates the device.
func (d *Device) snapshot() Snapshot {
	props := make(map[string]any, len(d.Properties))
	for k, v := range d.Properties {
		props[k] = v
	}

	var lastSeen *string
	if d.LastSeen != nil {
		s := d.LastSeen.UTC().Format(time.RFC3339)
		lastSeen = &s
	}

	return Snapshot{
		DeviceID:      d.ID,
		DeviceType:    d.Kind,
		Port:          d.Port,
		Status:        d.Status,
		Category:      d.Category,
		LastSeen:      lastSeen,
		Properties:    props,
		DiscoveryMode: d.DiscoveryMode,
		PairingStatus: d.Paired,
	}
}
