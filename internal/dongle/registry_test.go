package dongle

import (
	"errors"
	"testing"

	"github.com/wepower/iot-core/internal/device"
	"github.com/wepower/iot-core/internal/infrastructure/config"
	"github.com/wepower/iot-core/internal/transport"
)

func testSerialConfig() config.SerialConfig {
	return config.SerialConfig{
		BaudRate:     115200,
		ReadTimeout:  1.0,
		ProbeMessage: "WHO_ARE_YOU",
	}
}

func TestRegisterIdempotent(t *testing.T) {
	reg := NewRegistry(testSerialConfig())

	first := reg.Register("/dev/ttyUSB0", device.KindBLE, false)
	second := reg.Register("/dev/ttyUSB0", device.KindZigbee, true)

	// Kind is immutable after registration
	if second.Kind != device.KindBLE {
		t.Errorf("kind after duplicate Register = %v, want ble", second.Kind)
	}
	if second.Provisional != first.Provisional {
		t.Errorf("provisional flag changed on duplicate Register")
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
}

func TestConnectWithTransport(t *testing.T) {
	reg := NewRegistry(testSerialConfig())
	ft := &fakeTransport{replies: []string{"DEVICE:sensor1:BLE_SENSOR"}}
	reg.SetTransportFactory(func(string) (transport.LineTransport, error) {
		return ft, nil
	})

	reg.Register("/dev/ttyUSB0", device.KindBLE, false)

	info, err := reg.Connect("/dev/ttyUSB0")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !info.Active || info.Simulated {
		t.Errorf("Connect() info = %+v, want active non-simulated", info)
	}

	if err := reg.Send("/dev/ttyUSB0", "SCAN_DEVICES"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	line, ok, err := reg.Receive("/dev/ttyUSB0")
	if err != nil || !ok {
		t.Fatalf("Receive() = %v/%v, want line", ok, err)
	}
	if line != "DEVICE:sensor1:BLE_SENSOR" {
		t.Errorf("Receive() = %q", line)
	}
}

// A port that cannot be opened degrades to the simulated transport; the
// adapter stays connected and drivable.
func TestConnectDegradesToSimulated(t *testing.T) {
	reg := NewRegistry(testSerialConfig())
	reg.SetTransportFactory(func(string) (transport.LineTransport, error) {
		return nil, transport.ErrUnavailable
	})

	reg.Register("/dev/ttyUSB0", device.KindBLE, false)

	info, err := reg.Connect("/dev/ttyUSB0")
	if err != nil {
		t.Fatalf("Connect() error = %v, want degraded success", err)
	}
	if !info.Active || !info.Simulated {
		t.Errorf("Connect() info = %+v, want active simulated", info)
	}

	// The simulated transport still accepts commands
	if err := reg.Send("/dev/ttyUSB0", "SCAN_DEVICES"); err != nil {
		t.Errorf("Send() on simulated transport error = %v", err)
	}
}

func TestConnectUnknownPort(t *testing.T) {
	reg := NewRegistry(testSerialConfig())

	if _, err := reg.Connect("/dev/ttyUSB9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Connect() error = %v, want ErrNotFound", err)
	}
}

func TestDisconnect(t *testing.T) {
	reg := NewRegistry(testSerialConfig())
	ft := &fakeTransport{}
	reg.SetTransportFactory(func(string) (transport.LineTransport, error) {
		return ft, nil
	})

	reg.Register("/dev/ttyUSB0", device.KindBLE, false)
	reg.Connect("/dev/ttyUSB0") //nolint:errcheck

	if err := reg.Disconnect("/dev/ttyUSB0"); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if !ft.closed {
		t.Error("transport not closed on Disconnect()")
	}

	// Still registered, no longer active
	if reg.Count() != 1 {
		t.Errorf("Count() = %d after Disconnect, want 1", reg.Count())
	}
	if got := len(reg.Active()); got != 0 {
		t.Errorf("Active() = %d dongles after Disconnect, want 0", got)
	}

	if err := reg.Send("/dev/ttyUSB0", "SCAN_DEVICES"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() after Disconnect error = %v, want ErrNotConnected", err)
	}
}

func TestSendReceiveUnknownPort(t *testing.T) {
	reg := NewRegistry(testSerialConfig())

	if err := reg.Send("/dev/nope", "X"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Send() error = %v, want ErrNotFound", err)
	}
	if _, _, err := reg.Receive("/dev/nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Receive() error = %v, want ErrNotFound", err)
	}
}

func TestSnapshot(t *testing.T) {
	reg := NewRegistry(testSerialConfig())
	reg.Register("/dev/ttyACM0", device.KindZigbee, false)

	snap, err := reg.Snapshot("/dev/ttyACM0", 3)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if snap.Port != "/dev/ttyACM0" || snap.DeviceType != device.KindZigbee {
		t.Errorf("snapshot identity = %s/%s", snap.Port, snap.DeviceType)
	}
	if snap.DeviceCount != 3 {
		t.Errorf("device_count = %d, want 3", snap.DeviceCount)
	}
	if snap.Status != device.StatusDisconnected {
		t.Errorf("status = %v, want disconnected before Connect", snap.Status)
	}
	if snap.Timestamp == "" {
		t.Error("timestamp empty")
	}
}

func TestDiscover(t *testing.T) {
	reg := NewRegistry(testSerialConfig())

	transports := map[string]*fakeTransport{
		"/dev/ttyUSB0": {replies: []string{"WEPOWER_BLE_DONGLE"}},
		"/dev/ttyUSB1": {replies: []string{"garbage reply"}},
		"/dev/ttyACM0": nil, // unopenable, guessed from name
	}
	reg.SetTransportFactory(func(port string) (transport.LineTransport, error) {
		ft, ok := transports[port]
		if !ok || ft == nil {
			return nil, transport.ErrUnavailable
		}
		return ft, nil
	})

	// Identification handshakes, keyed by what each port should become
	for port := range transports {
		kind, provisional, err := reg.identifyPort(port)
		switch port {
		case "/dev/ttyUSB0":
			if err != nil || kind != device.KindBLE || provisional {
				t.Errorf("identifyPort(%s) = %v/%v/%v, want ble confirmed", port, kind, provisional, err)
			}
		case "/dev/ttyUSB1":
			if !errors.Is(err, ErrUnclassified) {
				t.Errorf("identifyPort(%s) error = %v, want ErrUnclassified", port, err)
			}
		case "/dev/ttyACM0":
			if err != nil || kind != device.KindZigbee || !provisional {
				t.Errorf("identifyPort(%s) = %v/%v/%v, want zigbee provisional", port, kind, provisional, err)
			}
		}
	}
}

func TestRefreshHeartbeats(t *testing.T) {
	reg := NewRegistry(testSerialConfig())
	reg.SetTransportFactory(func(string) (transport.LineTransport, error) {
		return &fakeTransport{}, nil
	})

	reg.Register("/dev/ttyUSB0", device.KindBLE, false)
	reg.Connect("/dev/ttyUSB0") //nolint:errcheck

	reg.RefreshHeartbeats()

	reg.mu.Lock()
	hb := reg.dongles["/dev/ttyUSB0"].LastHeartbeat
	reg.mu.Unlock()

	if hb == nil {
		t.Error("LastHeartbeat = nil after RefreshHeartbeats, want timestamp")
	}
}
