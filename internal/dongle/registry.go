package dongle

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wepower/iot-core/internal/device"
	"github.com/wepower/iot-core/internal/infrastructure/config"
	"github.com/wepower/iot-core/internal/transport"
)

// Logger defines the logging interface used by the Registry.
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

// TransportFactory opens a line transport for a port. Overridable in tests.
type TransportFactory func(port string) (transport.LineTransport, error)

// Registry tracks every known adapter, keyed by port path.
//
// All public methods are thread-safe. A dongle's transport kind is fixed
// at registration; IO failures are reported to callers but never remove
// the dongle from the registry.
type Registry struct {
	mu      sync.Mutex
	dongles map[string]*Dongle

	cfg    config.SerialConfig
	opener TransportFactory
	logger Logger
}

// NewRegistry creates an empty dongle registry.
//
// The default transport factory opens physical serial ports with the
// configured baud rate and read timeout.
func NewRegistry(cfg config.SerialConfig) *Registry {
	readTimeout := time.Duration(cfg.ReadTimeout * float64(time.Second))

	return &Registry{
		dongles: make(map[string]*Dongle),
		cfg:     cfg,
		opener: func(port string) (transport.LineTransport, error) {
			return transport.OpenSerial(port, cfg.BaudRate, readTimeout)
		},
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetTransportFactory replaces the transport opener. Used by tests to
// substitute scripted fakes for physical ports.
func (r *Registry) SetTransportFactory(f TransportFactory) {
	r.mu.Lock()
	r.opener = f
	r.mu.Unlock()
}

// Discover enumerates candidate ports and identifies the adapter on each.
//
// Per port: open a transient transport and run the identification
// handshake. A port that cannot be opened falls back to a port-name guess,
// registered as provisional; a port that answers with an unclassifiable
// reply (or stays silent) is skipped. Already-registered ports are left
// untouched.
//
// Returns the Info of every registered dongle after the pass.
func (r *Registry) Discover(filter transport.Filter, simulate bool) ([]Info, error) {
	ports, err := transport.ListPorts(filter, simulate)
	if err != nil {
		return nil, fmt.Errorf("discovering adapters: %w", err)
	}

	for _, port := range ports {
		if r.has(port) {
			continue
		}

		kind, provisional, err := r.identifyPort(port)
		if err != nil {
			r.logger.Info("no adapter identified", "port", port, "reason", err)
			continue
		}

		r.Register(port, kind, provisional)
	}

	return r.All(), nil
}

// identifyPort runs the handshake on a transient transport, falling back
// to the port-name guess when the port cannot be opened.
func (r *Registry) identifyPort(port string) (device.TransportKind, bool, error) {
	r.mu.Lock()
	opener := r.opener
	r.mu.Unlock()

	t, err := opener(port)
	if err != nil {
		if kind, ok := GuessFromPort(port); ok {
			r.logger.Warn("port not openable, classifying by name",
				"port", port, "kind", kind, "error", err)
			return kind, true, nil
		}
		return device.KindUnknown, false, err
	}
	defer t.Close() //nolint:errcheck // Transient probe connection

	kind, err := Identify(t, r.cfg.ProbeMessage)
	if err != nil {
		return device.KindUnknown, false, err
	}
	return kind, false, nil
}

// Register adds an adapter on the given port. Registering a port that
// already has a dongle is a no-op returning the existing entry's Info;
// in particular the transport kind of an existing dongle never changes.
func (r *Registry) Register(port string, kind device.TransportKind, provisional bool) Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.dongles[port]; ok {
		return existing.info()
	}

	d := &Dongle{
		Port:        port,
		Kind:        kind,
		Provisional: provisional,
		Status:      device.StatusDisconnected,
	}
	r.dongles[port] = d

	r.logger.Info("dongle registered",
		"port", port, "kind", kind, "provisional", provisional)
	return d.info()
}

// Connect opens the dongle's transport and marks it active.
//
// When the physical port cannot be opened the dongle degrades to the
// simulated transport instead of failing: the adapter stays visible to
// the control plane and the scan loop keeps driving it.
func (r *Registry) Connect(port string) (Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dongles[port]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, port)
	}
	if d.Active {
		return d.info(), nil
	}

	t, err := r.opener(port)
	if err != nil {
		r.logger.Warn("port not openable, using simulated transport",
			"port", port, "error", err)
		t = transport.NewSimTransport(readinessLine(d.Kind), time.Now().UnixNano())
		d.Simulated = true
	} else {
		d.Simulated = false
	}

	d.transport = t
	d.Status = device.StatusConnected
	d.Active = true

	r.logger.Info("dongle connected",
		"port", port, "kind", d.Kind, "simulated", d.Simulated)
	return d.info(), nil
}

// Disconnect closes the dongle's transport and marks it inactive.
// The dongle stays registered.
func (r *Registry) Disconnect(port string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dongles[port]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, port)
	}
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			r.logger.Error("closing dongle transport", "port", port, "error", err)
		}
		d.transport = nil
	}
	d.Status = device.StatusDisconnected
	d.Active = false
	return nil
}

// DisconnectAll disconnects every registered dongle. Used at shutdown.
func (r *Registry) DisconnectAll() {
	for _, info := range r.All() {
		if err := r.Disconnect(info.Port); err != nil {
			r.logger.Error("disconnecting dongle", "port", info.Port, "error", err)
		}
	}
}

// Send writes one command line to the dongle on the given port.
func (r *Registry) Send(port string, line string) error {
	r.mu.Lock()
	d, ok := r.dongles[port]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, port)
	}
	t := d.transport
	r.mu.Unlock()

	if t == nil {
		return fmt.Errorf("%w: %s", ErrNotConnected, port)
	}
	if err := t.SendLine(line); err != nil {
		return fmt.Errorf("sending to %s: %w", port, err)
	}
	return nil
}

// Receive reads one reply line from the dongle on the given port.
// ok=false means the adapter had nothing to say within the read timeout.
func (r *Registry) Receive(port string) (string, bool, error) {
	r.mu.Lock()
	d, ok := r.dongles[port]
	if !ok {
		r.mu.Unlock()
		return "", false, fmt.Errorf("%w: %s", ErrNotFound, port)
	}
	t := d.transport
	r.mu.Unlock()

	if t == nil {
		return "", false, fmt.Errorf("%w: %s", ErrNotConnected, port)
	}
	line, gotLine, err := t.ReadLine()
	if err != nil {
		return "", false, fmt.Errorf("receiving from %s: %w", port, err)
	}
	return line, gotLine, nil
}

// All returns the Info of every registered dongle.
func (r *Registry) All() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]Info, 0, len(r.dongles))
	for _, d := range r.dongles {
		infos = append(infos, d.info())
	}
	return infos
}

// Active returns the Info of every active dongle.
func (r *Registry) Active() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	var infos []Info
	for _, d := range r.dongles {
		if d.Active {
			infos = append(infos, d.info())
		}
	}
	return infos
}

// Count returns the number of registered dongles.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dongles)
}

// Snapshot builds the published view of the dongle on the given port.
// The device count is supplied by the caller, which knows how many end
// devices are attributed to the port.
func (r *Registry) Snapshot(port string, deviceCount int) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dongles[port]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, port)
	}
	return d.snapshot(deviceCount), nil
}

// RefreshHeartbeats stamps the heartbeat time of every active dongle.
func (r *Registry) RefreshHeartbeats() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, d := range r.dongles {
		if d.Active {
			d.LastHeartbeat = &now
		}
	}
}

func (r *Registry) has(port string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.dongles[port]
	return ok
}

// readinessLine is the line a simulated adapter occasionally emits.
func readinessLine(kind device.TransportKind) string {
	return strings.ToUpper(string(kind)) + "_DONGLE_READY"
}
