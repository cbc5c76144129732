package scanner

import (
	"strings"

	"github.com/wepower/iot-core/internal/device"
)

// Announcement is one parsed device report from an adapter.
type Announcement struct {
	DeviceID string
	Kind     device.TransportKind
	Category device.Category
}

// ParseAnnouncement parses one adapter reply line.
//
// The grammar is colon-separated: a line containing "DEVICE:" splits into
// at least three fields, with the device id in field 1 and a kind token in
// field 2 (BLE / ZIGBEE substring, anything else is generic). The category
// comes from a SENSOR / SWITCH / LIGHT keyword anywhere in the line.
//
// Malformed lines return ok=false and are dropped by the caller; a bad
// line from an adapter must never abort the read burst.
func ParseAnnouncement(line string) (Announcement, bool) {
	if !strings.Contains(line, "DEVICE:") {
		return Announcement{}, false
	}

	parts := strings.Split(line, ":")
	if len(parts) < 3 {
		return Announcement{}, false
	}

	id := strings.TrimSpace(parts[1])
	if id == "" {
		return Announcement{}, false
	}

	kindToken := strings.TrimSpace(parts[2])
	kind := device.KindGeneric
	switch {
	case strings.Contains(kindToken, "BLE"):
		kind = device.KindBLE
	case strings.Contains(kindToken, "ZIGBEE"):
		kind = device.KindZigbee
	}

	category := device.CategoryUnknown
	switch {
	case strings.Contains(line, "SENSOR"):
		category = device.CategorySensor
	case strings.Contains(line, "SWITCH"):
		category = device.CategorySwitch
	case strings.Contains(line, "LIGHT"):
		category = device.CategoryLight
	}

	return Announcement{
		DeviceID: id,
		Kind:     kind,
		Category: category,
	}, true
}
