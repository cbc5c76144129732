package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for WePower IoT Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Serial     SerialConfig     `yaml:"serial"`
	Scan       ScanConfig       `yaml:"scan"`
	Transports TransportsConfig `yaml:"transports"`
	Pairing    PairingConfig    `yaml:"pairing"`
	Simulation SimulationConfig `yaml:"simulation"`
	Database   DatabaseConfig   `yaml:"database"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// SerialConfig contains serial transport settings shared by all dongles.
type SerialConfig struct {
	// BaudRate is the line speed used when opening adapter ports.
	BaudRate int `yaml:"baud_rate"`

	// ReadTimeout is the bounded wait for a single reply line (seconds).
	ReadTimeout float64 `yaml:"read_timeout"`

	// ProbeMessage is the identification probe sent to unclassified ports.
	ProbeMessage string `yaml:"probe_message"`

	// IncludePatterns are substrings a port path must contain to be scanned.
	IncludePatterns []string `yaml:"include_patterns"`

	// ExcludePatterns are substrings that reject a port path, unless an
	// include pattern already matched.
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

// ScanConfig contains scan and heartbeat loop timing.
type ScanConfig struct {
	// Interval is the delay between device scan ticks (seconds).
	Interval float64 `yaml:"interval"`

	// HeartbeatInterval is the delay between heartbeat ticks (seconds).
	// Zero disables the heartbeat loop.
	HeartbeatInterval float64 `yaml:"heartbeat_interval"`

	// MaxReadLines bounds how many reply lines are read per dongle per tick.
	MaxReadLines int `yaml:"max_read_lines"`

	// OfflineThreshold is how many consecutive missed scans a connected
	// device tolerates before it is demoted to offline.
	OfflineThreshold int `yaml:"offline_threshold"`
}

// TransportsConfig contains per-transport enable flags and discovery defaults.
type TransportsConfig struct {
	EnableBLE    bool `yaml:"enable_ble"`
	EnableZigbee bool `yaml:"enable_zigbee"`

	// BLEDiscoveryMode is the default discovery mode for new BLE devices:
	// "v0_manual" (operator input) or "v1_auto" (network key exchange).
	BLEDiscoveryMode string `yaml:"ble_discovery_mode"`
}

// PairingConfig contains device pairing settings.
type PairingConfig struct {
	// Timeout is how long a pairing attempt may run before the device
	// reverts to its prior state (seconds).
	Timeout float64 `yaml:"timeout"`

	// MaxPairedDevices caps how many devices the registry will accept.
	MaxPairedDevices int `yaml:"max_paired_devices"`
}

// SimulationConfig gates the discovery-simulation path.
// With simulation disabled, only adapter-reported announcements create devices.
type SimulationConfig struct {
	Enabled bool `yaml:"enabled"`

	// DiscoveryPeriod is the number of scan ticks between synthesized
	// discovery events.
	DiscoveryPeriod int `yaml:"discovery_period"`
}

// DatabaseConfig contains SQLite settings for the lifecycle history journal.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: WEPOWER_SECTION_KEY
// For example: WEPOWER_MQTT_HOST, WEPOWER_SCAN_INTERVAL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
// Callers that cannot read a config file may use this directly.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "wepower-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Serial: SerialConfig{
			BaudRate:        115200,
			ReadTimeout:     1.0,
			ProbeMessage:    "WHO_ARE_YOU",
			IncludePatterns: []string{"/dev/ttyUSB", "/dev/ttyACM"},
			ExcludePatterns: []string{"/dev/ttyS", "/dev/input", "/dev/hidraw"},
		},
		Scan: ScanConfig{
			Interval:          5.0,
			HeartbeatInterval: 10.0,
			MaxReadLines:      10,
			OfflineThreshold:  10,
		},
		Transports: TransportsConfig{
			EnableBLE:        true,
			EnableZigbee:     true,
			BLEDiscoveryMode: "v0_manual",
		},
		Pairing: PairingConfig{
			Timeout:          30.0,
			MaxPairedDevices: 50,
		},
		Simulation: SimulationConfig{
			Enabled:         false,
			DiscoveryPeriod: 5,
		},
		Database: DatabaseConfig{
			Path:        "./data/wepower.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: WEPOWER_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("WEPOWER_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("WEPOWER_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("WEPOWER_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("WEPOWER_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Serial
	if v := os.Getenv("WEPOWER_SERIAL_INCLUDE_PATTERNS"); v != "" {
		cfg.Serial.IncludePatterns = splitPatterns(v)
	}
	if v := os.Getenv("WEPOWER_SERIAL_EXCLUDE_PATTERNS"); v != "" {
		cfg.Serial.ExcludePatterns = splitPatterns(v)
	}
	if v := os.Getenv("WEPOWER_SERIAL_PROBE_MESSAGE"); v != "" {
		cfg.Serial.ProbeMessage = v
	}

	// Scan
	if v := os.Getenv("WEPOWER_SCAN_INTERVAL"); v != "" {
		if interval, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scan.Interval = interval
		}
	}
	if v := os.Getenv("WEPOWER_HEARTBEAT_INTERVAL"); v != "" {
		if interval, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scan.HeartbeatInterval = interval
		}
	}

	// Transports
	if v := os.Getenv("WEPOWER_ENABLE_BLE"); v != "" {
		cfg.Transports.EnableBLE = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("WEPOWER_ENABLE_ZIGBEE"); v != "" {
		cfg.Transports.EnableZigbee = strings.EqualFold(v, "true")
	}

	// Database
	if v := os.Getenv("WEPOWER_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("WEPOWER_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// splitPatterns splits a comma-separated pattern list, trimming whitespace
// and dropping empty entries.
func splitPatterns(raw string) []string {
	parts := strings.Split(raw, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, "serial.baud_rate must be positive")
	}
	if c.Serial.ProbeMessage == "" {
		errs = append(errs, "serial.probe_message is required")
	}
	if c.Scan.Interval <= 0 {
		errs = append(errs, "scan.interval must be positive")
	}
	if c.Scan.MaxReadLines <= 0 {
		errs = append(errs, "scan.max_read_lines must be positive")
	}
	if c.Scan.OfflineThreshold <= 0 {
		errs = append(errs, "scan.offline_threshold must be positive")
	}
	if c.Pairing.Timeout <= 0 {
		errs = append(errs, "pairing.timeout must be positive")
	}
	if c.Simulation.Enabled && c.Simulation.DiscoveryPeriod <= 0 {
		errs = append(errs, "simulation.discovery_period must be positive when simulation is enabled")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetScanInterval returns the scan interval as a Duration.
func (c *Config) GetScanInterval() time.Duration {
	return time.Duration(c.Scan.Interval * float64(time.Second))
}

// GetHeartbeatInterval returns the heartbeat interval as a Duration.
func (c *Config) GetHeartbeatInterval() time.Duration {
	return time.Duration(c.Scan.HeartbeatInterval * float64(time.Second))
}

// GetSerialReadTimeout returns the serial read timeout as a Duration.
func (c *Config) GetSerialReadTimeout() time.Duration {
	return time.Duration(c.Serial.ReadTimeout * float64(time.Second))
}

// GetPairingTimeout returns the pairing timeout as a Duration.
func (c *Config) GetPairingTimeout() time.Duration {
	return time.Duration(c.Pairing.Timeout * float64(time.Second))
}
