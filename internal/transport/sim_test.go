package transport

import (
	"errors"
	"testing"
)

func TestSimTransportSendAlwaysSucceeds(t *testing.T) {
	sim := NewSimTransport("BLE_DONGLE_READY", 1)

	if err := sim.SendLine("SCAN_DEVICES"); err != nil {
		t.Errorf("SendLine() error = %v, want nil", err)
	}
}

func TestSimTransportEmitsReadinessLine(t *testing.T) {
	sim := NewSimTransport("ZIGBEE_DONGLE_READY", 42)

	var sawReadiness, sawSilence bool
	for i := 0; i < 1000; i++ {
		line, ok, err := sim.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine() error = %v", err)
		}
		if ok {
			if line != "ZIGBEE_DONGLE_READY" {
				t.Fatalf("ReadLine() = %q, want readiness line", line)
			}
			sawReadiness = true
		} else {
			sawSilence = true
		}
	}

	if !sawReadiness {
		t.Error("ReadLine() never emitted the readiness line in 1000 reads")
	}
	if !sawSilence {
		t.Error("ReadLine() never reported no-data in 1000 reads")
	}
}

func TestSimTransportClose(t *testing.T) {
	sim := NewSimTransport("BLE_DONGLE_READY", 1)

	if err := sim.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := sim.SendLine("SCAN_DEVICES"); !errors.Is(err, ErrClosed) {
		t.Errorf("SendLine() after Close error = %v, want ErrClosed", err)
	}
	if _, _, err := sim.ReadLine(); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadLine() after Close error = %v, want ErrClosed", err)
	}
}
