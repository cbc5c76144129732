package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/wepower/iot-core/internal/device"
	"github.com/wepower/iot-core/internal/dongle"
	"github.com/wepower/iot-core/internal/infrastructure/config"
)

// StatusPublisher publishes bridge status messages. The bridge implements
// this.
type StatusPublisher interface {
	PublishStatus(status string)
}

// HeartbeatTelemetry receives per-beat fleet counts. Optional.
type HeartbeatTelemetry interface {
	WriteHeartbeatMetric(dongles int, devices int, offline int)
}

// Monitor publishes a periodic liveness heartbeat and refreshes adapter
// heartbeat timestamps. A zero heartbeat interval disables the monitor.
type Monitor struct {
	cfg config.ScanConfig

	dongles *dongle.Registry
	devices *device.Registry

	publisher StatusPublisher
	telemetry HeartbeatTelemetry
	logger    Logger

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// MonitorConfig holds the collaborators of a Monitor.
type MonitorConfig struct {
	Scan    config.ScanConfig
	Dongles *dongle.Registry
	Devices *device.Registry

	// Publisher receives the heartbeat status message. Optional.
	Publisher StatusPublisher

	// Telemetry receives fleet counts on each beat. Optional.
	Telemetry HeartbeatTelemetry
}

// NewMonitor creates a heartbeat monitor.
func NewMonitor(cfg MonitorConfig) *Monitor {
	return &Monitor{
		cfg:       cfg.Scan,
		dongles:   cfg.Dongles,
		devices:   cfg.Devices,
		publisher: cfg.Publisher,
		telemetry: cfg.Telemetry,
		logger:    noopLogger{},
		done:      make(chan struct{}),
	}
}

// SetLogger sets the logger for the monitor.
func (m *Monitor) SetLogger(logger Logger) {
	m.logger = logger
}

// Start begins the heartbeat loop. A no-op when the interval is zero.
func (m *Monitor) Start(ctx context.Context) {
	if m.cfg.HeartbeatInterval <= 0 {
		m.logger.Info("heartbeat monitor disabled")
		return
	}

	m.wg.Add(1)
	go m.beatLoop(ctx)
}

// Stop gracefully stops the heartbeat loop. Safe to call multiple times.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}

func (m *Monitor) beatLoop(ctx context.Context) {
	defer m.wg.Done()

	interval := time.Duration(m.cfg.HeartbeatInterval * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			m.beat()
		}
	}
}

// beat is one heartbeat pass.
func (m *Monitor) beat() {
	m.dongles.RefreshHeartbeats()

	if m.publisher != nil {
		m.publisher.PublishStatus("heartbeat")
	}

	offline := len(m.devices.GetByStatus(device.StatusOffline))
	m.logger.Debug("heartbeat",
		"dongles", m.dongles.Count(),
		"devices", m.devices.Count(),
		"offline", offline)

	if m.telemetry != nil {
		m.telemetry.WriteHeartbeatMetric(m.dongles.Count(), m.devices.Count(), offline)
	}
}
