package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wepower/iot-core/internal/device"
	"github.com/wepower/iot-core/internal/dongle"
	"github.com/wepower/iot-core/internal/infrastructure/config"
)

// scanCommand asks an adapter to report the devices it can reach.
const scanCommand = "SCAN_DEVICES"

// Backoff bounds for a scan iteration that panicked or failed hard.
const (
	backoffInitial = 1 * time.Second
	backoffMax     = 30 * time.Second
)

// Logger defines the logging interface used by the scan loops.
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

// DonglePublisher publishes adapter snapshots. The bridge implements this.
type DonglePublisher interface {
	PublishDongle(snap dongle.Snapshot)
}

// ScanTelemetry receives per-pass scan metrics. Optional.
type ScanTelemetry interface {
	WriteScanMetric(port string, kind string, devicesFound int, duration time.Duration)
}

// Orchestrator drives the periodic device scan across all active adapters.
//
// One iteration sends the scan command to every active adapter whose
// transport kind is enabled, reads a bounded burst of announcement lines,
// feeds them into the device registry, advances the offline miss counters
// and publishes adapter snapshots. Iterations are supervised: a panic or
// error is logged and the loop backs off and continues, it never exits
// until Stop or context cancellation.
type Orchestrator struct {
	cfg      config.ScanConfig
	sim      config.SimulationConfig
	settings *config.Settings

	dongles *dongle.Registry
	devices *device.Registry

	publisher DonglePublisher
	telemetry ScanTelemetry
	logger    Logger

	// Shutdown coordination (stopOnce prevents double-close panics)
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// OrchestratorConfig holds the collaborators of an Orchestrator.
type OrchestratorConfig struct {
	Scan       config.ScanConfig
	Simulation config.SimulationConfig
	Settings   *config.Settings
	Dongles    *dongle.Registry
	Devices    *device.Registry

	// Publisher receives adapter snapshots after each pass. Optional.
	Publisher DonglePublisher

	// Telemetry receives scan metrics. Optional.
	Telemetry ScanTelemetry
}

// NewOrchestrator creates a scan orchestrator.
// Call Start to begin scanning and Stop to shut down.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg.Scan,
		sim:       cfg.Simulation,
		settings:  cfg.Settings,
		dongles:   cfg.Dongles,
		devices:   cfg.Devices,
		publisher: cfg.Publisher,
		telemetry: cfg.Telemetry,
		logger:    noopLogger{},
		done:      make(chan struct{}),
	}
}

// SetLogger sets the logger for the orchestrator.
func (o *Orchestrator) SetLogger(logger Logger) {
	o.logger = logger
}

// Start begins the scan loop. Call Stop to shut down.
func (o *Orchestrator) Start(ctx context.Context) {
	o.wg.Add(1)
	go o.scanLoop(ctx)
}

// Stop gracefully stops the scan loop and waits for it to finish.
// Safe to call multiple times.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		close(o.done)
		o.wg.Wait()
	})
}

// scanLoop runs scan iterations until stopped, backing off after failures.
func (o *Orchestrator) scanLoop(ctx context.Context) {
	defer o.wg.Done()

	interval := time.Duration(o.cfg.Interval * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	backoff := backoffInitial
	iteration := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.done:
			return
		case <-ticker.C:
			iteration++
			if err := o.safeTick(iteration); err != nil {
				o.logger.Error("scan iteration failed", "iteration", iteration, "error", err)
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return
				case <-o.done:
					return
				}
				backoff = min(backoff*2, backoffMax)
				continue
			}
			backoff = backoffInitial
		}
	}
}

// safeTick runs one scan iteration with panic recovery.
func (o *Orchestrator) safeTick(iteration int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan iteration panic: %v", r)
		}
	}()

	o.tick(iteration)
	return nil
}

// tick is one full scan pass.
func (o *Orchestrator) tick(iteration int) {
	o.logger.Debug("scan iteration", "iteration", iteration)

	for _, info := range o.dongles.Active() {
		if !o.kindEnabled(info.Kind) {
			continue
		}
		o.scanDongle(info)
	}

	// Devices not seen this pass burn one tick of their grace period
	o.devices.TickMisses(o.cfg.OfflineThreshold)

	o.publishDongles()

	if o.sim.Enabled && o.sim.DiscoveryPeriod > 0 && iteration%o.sim.DiscoveryPeriod == 0 {
		o.simulateDiscovery()
	}
}

// scanDongle sends the scan command to one adapter and consumes its reply
// burst. IO errors end the burst for this adapter but never escape.
func (o *Orchestrator) scanDongle(info dongle.Info) {
	start := time.Now()
	found := 0

	if err := o.dongles.Send(info.Port, scanCommand); err != nil {
		o.logger.Warn("scan command failed", "port", info.Port, "error", err)
		return
	}

	for i := 0; i < o.cfg.MaxReadLines; i++ {
		line, ok, err := o.dongles.Receive(info.Port)
		if err != nil {
			o.logger.Warn("scan read failed", "port", info.Port, "error", err)
			break
		}
		if !ok {
			break
		}

		ann, parsed := ParseAnnouncement(line)
		if !parsed {
			o.logger.Debug("unparseable adapter line", "port", info.Port, "line", line)
			continue
		}
		found++
		o.applyAnnouncement(ann, info.Port)
	}

	if o.telemetry != nil {
		o.telemetry.WriteScanMetric(info.Port, string(info.Kind), found, time.Since(start))
	}
}

// applyAnnouncement feeds one parsed announcement into the device registry:
// a known device is marked seen, a new one is registered against the
// adapter's port.
func (o *Orchestrator) applyAnnouncement(ann Announcement, port string) {
	if _, err := o.devices.Get(ann.DeviceID); err == nil {
		if err := o.devices.SetStatus(ann.DeviceID, device.StatusConnected); err != nil {
			o.logger.Warn("marking device seen", "device_id", ann.DeviceID, "error", err)
		}
		return
	}

	if _, err := o.devices.Add(ann.DeviceID, ann.Kind, port, ann.Category, nil); err != nil {
		o.logger.Warn("adding discovered device", "device_id", ann.DeviceID, "error", err)
	}
}

// publishDongles publishes a snapshot of every active adapter, attributing
// to each the devices registered against its port.
func (o *Orchestrator) publishDongles() {
	if o.publisher == nil {
		return
	}

	perPort := make(map[string]int)
	for _, snap := range o.devices.All() {
		perPort[snap.Port]++
	}

	for _, info := range o.dongles.Active() {
		snap, err := o.dongles.Snapshot(info.Port, perPort[info.Port])
		if err != nil {
			continue
		}
		o.publisher.PublishDongle(snap)
	}
}

// simulateDiscovery synthesizes one discovery per enabled transport kind.
// Only reachable with simulation mode on.
func (o *Orchestrator) simulateDiscovery() {
	if o.settings.BLEEnabled() {
		id := "ble_device_" + shortID()
		if _, err := o.devices.Add(id, device.KindBLE, "simulated_port", device.CategorySensor, nil); err != nil {
			o.logger.Warn("simulated discovery failed", "device_id", id, "error", err)
		} else {
			o.logger.Info("simulated device discovered", "device_id", id, "kind", device.KindBLE)
		}
	}

	if o.settings.ZigbeeEnabled() {
		id := "zigbee_device_" + shortID()
		if _, err := o.devices.Add(id, device.KindZigbee, "simulated_port", device.CategorySwitch, nil); err != nil {
			o.logger.Warn("simulated discovery failed", "device_id", id, "error", err)
		} else {
			o.logger.Info("simulated device discovered", "device_id", id, "kind", device.KindZigbee)
		}
	}
}

// kindEnabled consults the runtime transport toggles. Kinds without a
// toggle are always scanned.
func (o *Orchestrator) kindEnabled(kind device.TransportKind) bool {
	switch kind {
	case device.KindBLE:
		return o.settings.BLEEnabled()
	case device.KindZigbee:
		return o.settings.ZigbeeEnabled()
	default:
		return true
	}
}

// shortID returns an 8-character unique suffix for simulated device ids.
func shortID() string {
	return uuid.NewString()[:8]
}
