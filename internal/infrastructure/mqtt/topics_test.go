package mqtt

import "testing"

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"status", Topics{}.Status(), "wepower_iot/status"},
		{"device", Topics{}.Device("ble", "sensor42"), "wepower_iot/ble/sensor42"},
		{"dongle", Topics{}.Dongle("/dev/ttyUSB0"), "wepower_iot/dongle//dev/ttyUSB0"},
		{"control subscribe", Topics{}.ControlSubscribe(), "wepower_iot/control/+/+"},
		{"device command subscribe", Topics{}.DeviceCommandSubscribe(), "wepower_iot/device/+/command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("topic = %q, want %q", tt.got, tt.want)
			}
		})
	}
}
