package bridge

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/wepower/iot-core/internal/device"
)

// Control actions accepted on wepower_iot/control/+/+.
const (
	actionToggleBLE       = "toggle_ble"
	actionToggleZigbee    = "toggle_zigbee"
	actionManualDeviceAdd = "manual_device_add"
)

// Device commands accepted on wepower_iot/device/+/command.
const (
	commandTurnOn       = "turn_on"
	commandTurnOff      = "turn_off"
	commandPair         = "pair"
	commandPairComplete = "pair_complete"
)

// handleControl processes one inbound control message. Malformed payloads
// and unknown actions are logged and dropped, never propagated: a bad
// message from the bus must not disturb the bridge.
func (b *Bridge) handleControl(topic string, payload []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		b.logger.Warn("malformed control payload", "topic", topic, "error", err)
		return nil
	}

	action, _ := fields["action"].(string)
	switch action {
	case actionToggleBLE:
		enabled, _ := fields["enabled"].(bool)
		b.settings.SetBLEEnabled(enabled)
		b.logger.Info("ble transport toggled", "enabled", enabled)
		b.PublishStatus("online")

	case actionToggleZigbee:
		enabled, _ := fields["enabled"].(bool)
		b.settings.SetZigbeeEnabled(enabled)
		b.logger.Info("zigbee transport toggled", "enabled", enabled)
		b.PublishStatus("online")

	case actionManualDeviceAdd:
		if _, ok := fields["ble_discovery_mode"]; !ok {
			// Payloads without an explicit mode get the configured default.
			fields["ble_discovery_mode"] = b.settings.BLEDiscoveryMode()
		}
		snap, err := b.devices.ManualAdd(fields)
		if err != nil {
			b.logger.Warn("manual device add rejected", "error", err)
			return nil
		}
		b.logger.Info("device added manually",
			"device_id", snap.DeviceID, "kind", snap.DeviceType)

	default:
		b.logger.Warn("unknown control action", "topic", topic, "action", action)
	}
	return nil
}

// deviceCommand is the inbound per-device command shape. The optional
// light fields are pointers so absent and present-but-zero are
// distinguishable.
type deviceCommand struct {
	Command    string `json:"command"`
	DeviceID   string `json:"device_id"`
	RGBColor   []int  `json:"rgb_color,omitempty"`
	Brightness *int   `json:"brightness,omitempty"`
	ColorTemp  *int   `json:"color_temp,omitempty"`
}

// handleDeviceCommand processes one inbound device command.
func (b *Bridge) handleDeviceCommand(topic string, payload []byte) error {
	var cmd deviceCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logger.Warn("malformed device command", "topic", topic, "error", err)
		return nil
	}
	if cmd.DeviceID == "" {
		b.logger.Warn("device command without device_id", "topic", topic, "command", cmd.Command)
		return nil
	}

	b.logger.Info("device command received", "device_id", cmd.DeviceID, "command", cmd.Command)

	switch cmd.Command {
	case commandTurnOn:
		b.turnOn(cmd)
	case commandTurnOff:
		b.setLightState(cmd.DeviceID, false)
	case commandPair:
		b.startPairing(cmd.DeviceID)
	case commandPairComplete:
		b.completePairing(cmd.DeviceID)
	default:
		b.logger.Warn("unknown device command", "device_id", cmd.DeviceID, "command", cmd.Command)
	}
	return nil
}

// turnOn merges the optional light attributes into the device's properties
// and flips the light state. The registry publishes the updated snapshot.
func (b *Bridge) turnOn(cmd deviceCommand) {
	props := map[string]any{"light_state": true}
	if cmd.RGBColor != nil {
		props["rgb_color"] = cmd.RGBColor
	}
	if cmd.Brightness != nil {
		props["brightness"] = *cmd.Brightness
	}
	if cmd.ColorTemp != nil {
		props["color_temp"] = *cmd.ColorTemp
	}

	if _, err := b.devices.MergeProperties(cmd.DeviceID, props); err != nil {
		b.logger.Warn("turn_on for unknown device", "device_id", cmd.DeviceID, "error", err)
	}
}

func (b *Bridge) setLightState(id string, on bool) {
	if _, err := b.devices.MergeProperties(id, map[string]any{"light_state": on}); err != nil {
		b.logger.Warn("light command for unknown device", "device_id", id, "error", err)
	}
}

// startPairing enters the pairing state and arms the timeout that reverts
// the device if pairing never completes.
func (b *Bridge) startPairing(id string) {
	if err := b.devices.StartPairing(id); err != nil {
		b.logger.Warn("pairing rejected", "device_id", id, "error", err)
		return
	}

	b.logger.Info("pairing started", "device_id", id, "timeout", b.pairingTimeout)

	time.AfterFunc(b.pairingTimeout, func() {
		err := b.devices.AbortPairing(id)
		switch {
		case err == nil:
			b.logger.Warn("pairing timed out", "device_id", id)
		case errors.Is(err, device.ErrNotPairing), errors.Is(err, device.ErrNotFound):
			// Completed or removed in time, nothing to revert
		default:
			b.logger.Error("aborting pairing", "device_id", id, "error", err)
		}
	})
}

func (b *Bridge) completePairing(id string) {
	if err := b.devices.CompletePairing(id); err != nil {
		b.logger.Warn("pairing completion rejected", "device_id", id, "error", err)
		return
	}
	b.logger.Info("pairing completed", "device_id", id)
}
