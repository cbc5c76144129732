package config

import "sync"

// Settings holds the runtime-mutable subset of configuration.
//
// Inbound control commands toggle transports while the scan loop reads the
// same flags, so access goes through a single mutex. One Settings instance
// is created at startup and shared by reference.
type Settings struct {
	mu sync.RWMutex

	enableBLE        bool
	enableZigbee     bool
	bleDiscoveryMode string
}

// NewSettings seeds runtime settings from the loaded configuration.
func NewSettings(cfg TransportsConfig) *Settings {
	return &Settings{
		enableBLE:        cfg.EnableBLE,
		enableZigbee:     cfg.EnableZigbee,
		bleDiscoveryMode: cfg.BLEDiscoveryMode,
	}
}

// BLEEnabled reports whether the BLE transport is enabled.
func (s *Settings) BLEEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enableBLE
}

// ZigbeeEnabled reports whether the Zigbee transport is enabled.
func (s *Settings) ZigbeeEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enableZigbee
}

// SetBLEEnabled toggles the BLE transport.
func (s *Settings) SetBLEEnabled(enabled bool) {
	s.mu.Lock()
	s.enableBLE = enabled
	s.mu.Unlock()
}

// SetZigbeeEnabled toggles the Zigbee transport.
func (s *Settings) SetZigbeeEnabled(enabled bool) {
	s.mu.Lock()
	s.enableZigbee = enabled
	s.mu.Unlock()
}

// BLEDiscoveryMode returns the default discovery mode for new BLE devices.
func (s *Settings) BLEDiscoveryMode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bleDiscoveryMode
}
