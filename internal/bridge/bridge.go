package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wepower/iot-core/internal/device"
	"github.com/wepower/iot-core/internal/dongle"
	"github.com/wepower/iot-core/internal/infrastructure/config"
	"github.com/wepower/iot-core/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Broker is the slice of the MQTT client the bridge needs. Satisfied by
// *mqtt.Client; tests substitute an in-memory fake.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Bridge connects the device and dongle registries to the message bus.
//
// Inbound, it handles control commands (transport toggles, manual device
// addition) and per-device commands (turn_on, turn_off, pairing). Outbound,
// it publishes system status, device snapshots and adapter snapshots. The
// bridge is the registries' Publisher: every lifecycle change flows back
// out through PublishDevice.
//
// Inbound handlers run on broker client goroutines; all registry entry
// points they touch are concurrency-safe.
type Bridge struct {
	broker   Broker
	topics   mqtt.Topics
	settings *config.Settings
	devices  *device.Registry

	qos            byte
	pairingTimeout time.Duration
	logger         Logger
}

// Config holds the collaborators of a Bridge.
type Config struct {
	Broker   Broker
	Settings *config.Settings
	Devices  *device.Registry

	// QoS applies to all outbound publishes and subscriptions.
	QoS byte

	// PairingTimeout bounds how long a device may sit in the pairing
	// state before reverting.
	PairingTimeout time.Duration
}

// New creates a bridge. Call Start to subscribe and announce presence.
func New(cfg Config) *Bridge {
	return &Bridge{
		broker:         cfg.Broker,
		settings:       cfg.Settings,
		devices:        cfg.Devices,
		qos:            cfg.QoS,
		pairingTimeout: cfg.PairingTimeout,
		logger:         noopLogger{},
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.logger = logger
}

// Start subscribes to both inbound command families and announces the
// service online. The broker client restores subscriptions across
// reconnects; Start only needs to run once.
func (b *Bridge) Start() error {
	if err := b.broker.Subscribe(b.topics.ControlSubscribe(), b.qos, b.handleControl); err != nil {
		return fmt.Errorf("subscribing to control commands: %w", err)
	}
	if err := b.broker.Subscribe(b.topics.DeviceCommandSubscribe(), b.qos, b.handleDeviceCommand); err != nil {
		return fmt.Errorf("subscribing to device commands: %w", err)
	}

	b.PublishStatus("online")
	return nil
}

// =====================================================================
// Outbound
// =====================================================================

// statusPayload is the system status message shape.
type statusPayload struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	BLEEnabled    bool   `json:"ble_enabled"`
	ZigbeeEnabled bool   `json:"zigbee_enabled"`
}

// PublishStatus publishes a retained system status message reflecting the
// current transport toggles.
func (b *Bridge) PublishStatus(status string) {
	payload, err := json.Marshal(statusPayload{
		Status:        status,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		BLEEnabled:    b.settings.BLEEnabled(),
		ZigbeeEnabled: b.settings.ZigbeeEnabled(),
	})
	if err != nil {
		b.logger.Error("marshaling status payload", "error", err)
		return
	}

	if err := b.broker.PublishRetained(b.topics.Status(), payload); err != nil {
		b.logger.Error("publishing status", "status", status, "error", err)
	}
}

// PublishDevice publishes a retained device snapshot on the device's topic.
// Implements device.Publisher.
func (b *Bridge) PublishDevice(snap device.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		b.logger.Error("marshaling device snapshot", "device_id", snap.DeviceID, "error", err)
		return
	}

	topic := b.topics.Device(string(snap.DeviceType), snap.DeviceID)
	if err := b.broker.PublishRetained(topic, payload); err != nil {
		b.logger.Error("publishing device snapshot",
			"device_id", snap.DeviceID, "topic", topic, "error", err)
	}
}

// PublishDongle publishes an adapter snapshot on the adapter's topic.
// Implements scanner.DonglePublisher.
func (b *Bridge) PublishDongle(snap dongle.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		b.logger.Error("marshaling dongle snapshot", "port", snap.Port, "error", err)
		return
	}

	if err := b.broker.Publish(b.topics.Dongle(snap.Port), payload, b.qos, false); err != nil {
		b.logger.Error("publishing dongle snapshot", "port", snap.Port, "error", err)
	}
}
