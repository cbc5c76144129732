package mqtt

import "fmt"

// TopicPrefix is the base for all WePower IoT topics.
//
// Topic scheme:
//
//	wepower_iot/status                     system status (retained)
//	wepower_iot/{kind}/{device_id}         per-device snapshots (retained)
//	wepower_iot/dongle/{port}              per-dongle snapshots
//	wepower_iot/control/{kind}/{action}    inbound control commands
//	wepower_iot/device/{id}/command        inbound device commands
const TopicPrefix = "wepower_iot"

// Topics provides builders for WePower IoT MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// Status returns the system status topic.
//
// Example: wepower_iot/status
func (Topics) Status() string {
	return fmt.Sprintf("%s/status", TopicPrefix)
}

// Device returns the snapshot topic for a device, keyed by transport kind
// and device id.
//
// Example: wepower_iot/ble/sensor42
func (Topics) Device(kind, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, kind, deviceID)
}

// Dongle returns the snapshot topic for an adapter, keyed by port path.
//
// Example: wepower_iot/dongle//dev/ttyUSB0
func (Topics) Dongle(port string) string {
	return fmt.Sprintf("%s/dongle/%s", TopicPrefix, port)
}

// ControlSubscribe returns the wildcard pattern for inbound control commands.
//
// Pattern: wepower_iot/control/+/+
func (Topics) ControlSubscribe() string {
	return fmt.Sprintf("%s/control/+/+", TopicPrefix)
}

// DeviceCommandSubscribe returns the wildcard pattern for inbound device commands.
//
// Pattern: wepower_iot/device/+/command
func (Topics) DeviceCommandSubscribe() string {
	return fmt.Sprintf("%s/device/+/command", TopicPrefix)
}
