package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
mqtt:
  broker:
    host: "broker.local"
    port: 1884
    client_id: "test-client"
  qos: 2
serial:
  baud_rate: 9600
  probe_message: "WHO_ARE_YOU"
scan:
  interval: 2.5
  offline_threshold: 3
database:
  path: "/tmp/test.db"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want broker.local", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("MQTT.QoS = %d, want 2", cfg.MQTT.QoS)
	}
	if cfg.Serial.BaudRate != 9600 {
		t.Errorf("Serial.BaudRate = %d, want 9600", cfg.Serial.BaudRate)
	}
	if cfg.Scan.Interval != 2.5 {
		t.Errorf("Scan.Interval = %v, want 2.5", cfg.Scan.Interval)
	}

	// Defaults survive for sections the file omits
	if cfg.Scan.MaxReadLines != 10 {
		t.Errorf("Scan.MaxReadLines = %d, want default 10", cfg.Scan.MaxReadLines)
	}
	if !cfg.Transports.EnableBLE || !cfg.Transports.EnableZigbee {
		t.Error("transport defaults not applied")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "invalid: [yaml: content")); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WEPOWER_MQTT_HOST", "env-broker")
	t.Setenv("WEPOWER_MQTT_PORT", "2883")
	t.Setenv("WEPOWER_SERIAL_INCLUDE_PATTERNS", "/dev/ttyUSB, /dev/ttyXRUSB")
	t.Setenv("WEPOWER_ENABLE_ZIGBEE", "false")

	cfg, err := Load(writeConfig(t, "mqtt:\n  broker:\n    host: file-broker\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 2883 {
		t.Errorf("MQTT.Broker.Port = %d, want 2883", cfg.MQTT.Broker.Port)
	}
	if len(cfg.Serial.IncludePatterns) != 2 || cfg.Serial.IncludePatterns[1] != "/dev/ttyXRUSB" {
		t.Errorf("Serial.IncludePatterns = %v, want trimmed env list", cfg.Serial.IncludePatterns)
	}
	if cfg.Transports.EnableZigbee {
		t.Error("Transports.EnableZigbee = true, want env override false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "bad broker port",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 0 },
			wantErr: "mqtt.broker.port",
		},
		{
			name:    "missing probe",
			mutate:  func(c *Config) { c.Serial.ProbeMessage = "" },
			wantErr: "serial.probe_message",
		},
		{
			name:    "zero scan interval",
			mutate:  func(c *Config) { c.Scan.Interval = 0 },
			wantErr: "scan.interval",
		},
		{
			name: "simulation without period",
			mutate: func(c *Config) {
				c.Simulation.Enabled = true
				c.Simulation.DiscoveryPeriod = 0
			},
			wantErr: "simulation.discovery_period",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := Default()
	cfg.Scan.Interval = 2.5
	cfg.Pairing.Timeout = 0.5

	if got := cfg.GetScanInterval(); got != 2500*time.Millisecond {
		t.Errorf("GetScanInterval() = %v, want 2.5s", got)
	}
	if got := cfg.GetPairingTimeout(); got != 500*time.Millisecond {
		t.Errorf("GetPairingTimeout() = %v, want 500ms", got)
	}
	if got := cfg.GetHeartbeatInterval(); got != 10*time.Second {
		t.Errorf("GetHeartbeatInterval() = %v, want default 10s", got)
	}
	if got := cfg.GetSerialReadTimeout(); got != time.Second {
		t.Errorf("GetSerialReadTimeout() = %v, want default 1s", got)
	}
}

func TestSettingsToggles(t *testing.T) {
	s := NewSettings(TransportsConfig{EnableBLE: true, EnableZigbee: false, BLEDiscoveryMode: "v0_manual"})

	if !s.BLEEnabled() || s.ZigbeeEnabled() {
		t.Fatal("settings not seeded from config")
	}

	s.SetBLEEnabled(false)
	s.SetZigbeeEnabled(true)

	if s.BLEEnabled() || !s.ZigbeeEnabled() {
		t.Error("toggles not applied")
	}
	if s.BLEDiscoveryMode() != "v0_manual" {
		t.Errorf("BLEDiscoveryMode() = %q, want v0_manual", s.BLEDiscoveryMode())
	}
}
