// Package device provides the Device Registry for WePower IoT Core.
//
// The Device Registry is the central catalogue of every end device reachable
// through a radio adapter. It owns the device lifecycle state machine, the
// offline miss counters, and the pairing sub-state, and it publishes a
// snapshot to the control plane on every visible change.
//
// # Key Types
//
//   - Device: One tracked end device (internal; callers see Snapshot copies)
//   - Snapshot: The published view, field names matching the bus contract
//   - TransportKind: Radio technology (ble, zigbee, zwave, matter, generic)
//   - Status: Lifecycle state (disconnected ... paired, offline, pairing, error)
//   - Category: Functional class (sensor, switch, light, door, toggle)
//
// # Lifecycle
//
//	disconnected → connecting → connected → identified → paired
//
// Offline, Pairing and Error branch off the middle states. No state is
// terminal: a scan announcement returns an offline device to connected,
// and an aborted pairing attempt reverts to the prior state.
//
// # Usage
//
//	registry := device.NewRegistry(cfg.Pairing.MaxPairedDevices)
//	registry.SetLogger(log)
//	registry.SetPublisher(bridge)
//
//	snap, _ := registry.Add("sensor42", device.KindBLE, "/dev/ttyUSB0",
//	    device.CategorySensor, nil)
//	registry.SetStatus("sensor42", device.StatusConnected)
//
//	// Once per scan tick:
//	demoted := registry.TickMisses(cfg.Scan.OfflineThreshold)
//
// # Thread Safety
//
// The Registry is safe for concurrent use. All operations are protected by
// a read-write mutex; snapshots are copies and never alias registry state.
package device
