package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher receives device snapshots for publication to the control plane.
// The bridge implements this; a nil publisher drops snapshots.
type Publisher interface {
	PublishDevice(snap Snapshot)
}

// Telemetry receives lifecycle transition events. Optional.
type Telemetry interface {
	WriteLifecycleEvent(deviceID string, from string, to string)
}

// Registry tracks every known end device and drives its lifecycle.
//
// All public methods are thread-safe. Registered devices never escape the
// registry: queries return Snapshot copies.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device

	// maxDevices caps the registry size; zero means unlimited.
	maxDevices int

	publisher Publisher
	history   HistoryRecorder
	telemetry Telemetry
	logger    Logger
}

// NewRegistry creates an empty device registry.
//
// Parameters:
//   - maxDevices: Upper bound on tracked devices (0 = unlimited)
func NewRegistry(maxDevices int) *Registry {
	return &Registry{
		devices:    make(map[string]*Device),
		maxDevices: maxDevices,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetPublisher sets the snapshot publisher (typically the control bridge).
func (r *Registry) SetPublisher(p Publisher) {
	r.mu.Lock()
	r.publisher = p
	r.mu.Unlock()
}

// SetHistory sets the lifecycle history recorder.
func (r *Registry) SetHistory(h HistoryRecorder) {
	r.mu.Lock()
	r.history = h
	r.mu.Unlock()
}

// SetTelemetry sets the lifecycle telemetry sink.
func (r *Registry) SetTelemetry(t Telemetry) {
	r.mu.Lock()
	r.telemetry = t
	r.mu.Unlock()
}

// Add registers a new device.
//
// Adding an existing ID is a no-op that returns the current snapshot:
// repeated scan announcements must never reset a device's state or
// properties. New devices start Disconnected; the next scan pass that
// sees them moves them to Connected.
//
// Parameters:
//   - id: Unique device identifier
//   - kind: Transport kind reported by the adapter
//   - port: Serial port of the adapter the device was seen through
//   - category: Functional class parsed from the announcement
//   - properties: Initial free-form properties (may be nil)
//
// Returns:
//   - Snapshot: The device's published view after the call
//   - error: ErrInvalidID or ErrRegistryFull
func (r *Registry) Add(id string, kind TransportKind, port string, category Category, properties map[string]any) (Snapshot, error) {
	if id == "" {
		return Snapshot{}, ErrInvalidID
	}

	r.mu.Lock()

	if existing, ok := r.devices[id]; ok {
		snap := existing.snapshot()
		r.mu.Unlock()
		return snap, nil
	}

	if r.maxDevices > 0 && len(r.devices) >= r.maxDevices {
		r.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: limit %d reached", ErrRegistryFull, r.maxDevices)
	}

	d := &Device{
		ID:            id,
		Kind:          kind,
		Port:          port,
		Status:        StatusDisconnected,
		Category:      category,
		Properties:    make(map[string]any),
		DiscoveryMode: DiscoveryManual,
	}
	for k, v := range properties {
		d.Properties[k] = v
	}
	r.devices[id] = d

	snap := d.snapshot()
	publisher := r.publisher
	r.mu.Unlock()

	r.logger.Info("device added", "device_id", id, "kind", kind, "port", port)

	if publisher != nil {
		publisher.PublishDevice(snap)
	}
	return snap, nil
}

// Remove deletes a device, publishing a final Disconnected snapshot first.
// Removing an unknown ID returns ErrNotFound.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()

	d, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	from := d.Status
	d.Status = StatusDisconnected
	now := time.Now().UTC()
	d.LastSeen = &now
	snap := d.snapshot()
	delete(r.devices, id)

	publisher := r.publisher
	r.mu.Unlock()

	r.logger.Info("device removed", "device_id", id)

	if publisher != nil {
		publisher.PublishDevice(snap)
	}
	r.recordTransition(id, from, StatusDisconnected, snap)
	return nil
}

// SetStatus moves a device to the given lifecycle state.
//
// The device's last-seen timestamp is refreshed and the new snapshot is
// published. Entering Connected resets the miss counter, so a rediscovered
// Offline device starts a fresh grace period.
func (r *Registry) SetStatus(id string, status Status) error {
	r.mu.Lock()

	d, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	from := d.Status
	d.Status = status
	now := time.Now().UTC()
	d.LastSeen = &now
	if status == StatusConnected {
		d.missCount = 0
	}

	snap := d.snapshot()
	publisher := r.publisher
	r.mu.Unlock()

	if from != status {
		r.logger.Debug("device status changed", "device_id", id, "from", from, "to", status)
	}

	if publisher != nil {
		publisher.PublishDevice(snap)
	}
	if from != status {
		r.recordTransition(id, from, status, snap)
	}
	return nil
}

// MergeProperties merges the given properties into the device and publishes
// the updated snapshot. nil values are stored as-is.
func (r *Registry) MergeProperties(id string, props map[string]any) (Snapshot, error) {
	r.mu.Lock()

	d, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	for k, v := range props {
		d.Properties[k] = v
	}

	snap := d.snapshot()
	publisher := r.publisher
	r.mu.Unlock()

	if publisher != nil {
		publisher.PublishDevice(snap)
	}
	return snap, nil
}

// Get returns the snapshot of a single device.
func (r *Registry) Get(id string) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d.snapshot(), nil
}

// All returns snapshots of every tracked device.
func (r *Registry) All() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(r.devices))
	for _, d := range r.devices {
		snaps = append(snaps, d.snapshot())
	}
	return snaps
}

// GetByKind returns snapshots of devices with the given transport kind.
func (r *Registry) GetByKind(kind TransportKind) []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var snaps []Snapshot
	for _, d := range r.devices {
		if d.Kind == kind {
			snaps = append(snaps, d.snapshot())
		}
	}
	return snaps
}

// GetByStatus returns snapshots of devices in the given lifecycle state.
func (r *Registry) GetByStatus(status Status) []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var snaps []Snapshot
	for _, d := range r.devices {
		if d.Status == status {
			snaps = append(snaps, d.snapshot())
		}
	}
	return snaps
}

// GetByCategory returns snapshots of devices in the given category.
func (r *Registry) GetByCategory(category Category) []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var snaps []Snapshot
	for _, d := range r.devices {
		if d.Category == category {
			snaps = append(snaps, d.snapshot())
		}
	}
	return snaps
}

// Count returns the number of tracked devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// ManualAdd registers a device from an operator-supplied field map.
//
// Parsing is lenient: unknown enum values fall back to their defaults
// (kind → unknown, category → unknown, discovery mode → v0_manual) and
// only a missing device_id is an error. The initial state depends on the
// discovery mode: manual entry means the operator has already identified
// the device, key exchange starts a connection attempt.
func (r *Registry) ManualAdd(fields map[string]any) (Snapshot, error) {
	id, _ := fields["device_id"].(string)
	if id == "" {
		return Snapshot{}, fmt.Errorf("%w: device_id is required", ErrInvalidID)
	}

	kindStr, _ := fields["device_type"].(string)
	port, _ := fields["port"].(string)
	if port == "" {
		port = "manual"
	}
	categoryStr, _ := fields["category"].(string)
	modeStr, _ := fields["ble_discovery_mode"].(string)

	kind := ParseTransportKind(kindStr)
	category := ParseCategory(categoryStr)
	mode := ParseDiscoveryMode(modeStr)

	if _, err := r.Add(id, kind, port, category, nil); err != nil {
		return Snapshot{}, err
	}

	// The discovery mode is a BLE concept; other kinds keep the default.
	// The initial status still follows the requested mode either way.
	if kind == KindBLE {
		r.mu.Lock()
		if d, ok := r.devices[id]; ok {
			d.DiscoveryMode = mode
		}
		r.mu.Unlock()
	}

	initial := StatusIdentified
	if mode == DiscoveryAuto {
		initial = StatusConnecting
	}
	if err := r.SetStatus(id, initial); err != nil {
		return Snapshot{}, err
	}

	r.logger.Info("manual device added",
		"device_id", id, "kind", kind, "discovery_mode", mode)

	return r.Get(id)
}

// TickMisses advances the miss counter of every Connected device and
// demotes those that exceeded the threshold to Offline.
//
// A device is demoted exactly once: after demotion it is no longer
// Connected, so further ticks leave it alone until a scan brings it back.
//
// Returns the snapshots of the devices demoted by this tick.
func (r *Registry) TickMisses(threshold int) []Snapshot {
	r.mu.Lock()

	type demotion struct {
		id   string
		snap Snapshot
	}
	var demoted []demotion

	now := time.Now().UTC()
	for _, d := range r.devices {
		if d.Status != StatusConnected {
			continue
		}
		d.missCount++
		if d.missCount > threshold {
			d.Status = StatusOffline
			d.LastSeen = &now
			d.missCount = 0
			demoted = append(demoted, demotion{id: d.ID, snap: d.snapshot()})
		}
	}

	publisher := r.publisher
	r.mu.Unlock()

	snaps := make([]Snapshot, 0, len(demoted))
	for _, dem := range demoted {
		r.logger.Warn("device offline", "device_id", dem.id)
		if publisher != nil {
			publisher.PublishDevice(dem.snap)
		}
		r.recordTransition(dem.id, StatusConnected, StatusOffline, dem.snap)
		snaps = append(snaps, dem.snap)
	}
	return snaps
}

// StartPairing moves the device into the pairing sub-state, remembering
// the state to revert to if the attempt is aborted.
func (r *Registry) StartPairing(id string) error {
	r.mu.Lock()
	d, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if d.Status == StatusPairing {
		r.mu.Unlock()
		return nil
	}
	d.priorStatus = d.Status
	r.mu.Unlock()

	return r.SetStatus(id, StatusPairing)
}

// CompletePairing marks a pairing attempt as successful.
func (r *Registry) CompletePairing(id string) error {
	r.mu.Lock()
	d, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if d.Status != StatusPairing {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrNotPairing, id, d.Status)
	}
	d.Paired = true
	r.mu.Unlock()

	return r.SetStatus(id, StatusPaired)
}

// AbortPairing reverts a timed-out or cancelled pairing attempt to the
// state the device held before pairing started.
func (r *Registry) AbortPairing(id string) error {
	r.mu.Lock()
	d, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if d.Status != StatusPairing {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrNotPairing, id, d.Status)
	}
	prior := d.priorStatus
	r.mu.Unlock()

	r.logger.Warn("pairing aborted", "device_id", id, "reverting_to", prior)
	return r.SetStatus(id, prior)
}

// recordTransition writes a lifecycle transition to the history journal
// and telemetry sink. Failures are logged, never propagated: the journal
// is an audit trail, not a dependency of the lifecycle.
func (r *Registry) recordTransition(id string, from, to Status, snap Snapshot) {
	r.mu.RLock()
	history := r.history
	telemetry := r.telemetry
	r.mu.RUnlock()

	if history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		if err := history.RecordTransition(ctx, id, from, to, snap); err != nil {
			r.logger.Error("recording lifecycle transition", "device_id", id, "error", err)
		}
		cancel()
	}
	if telemetry != nil {
		telemetry.WriteLifecycleEvent(id, string(from), string(to))
	}
}
