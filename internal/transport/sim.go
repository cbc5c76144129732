package transport

import (
	"math/rand"
	"sync"
)

// readinessProbability is the chance a ReadLine on a simulated transport
// yields the readiness line instead of no data.
const readinessProbability = 0.05

// SimTransport is the synthetic line bus used in degraded mode, when a
// registered port cannot be opened. Writes always succeed and reads are
// mostly silent, with an occasional readiness line so the adapter still
// looks alive to the scan loop.
type SimTransport struct {
	readiness string

	mu     sync.Mutex
	rng    *rand.Rand
	closed bool
}

// NewSimTransport creates a simulated transport that occasionally emits
// the given readiness line (e.g., "BLE_DONGLE_READY").
func NewSimTransport(readiness string, seed int64) *SimTransport {
	return &SimTransport{
		readiness: readiness,
		rng:       rand.New(rand.NewSource(seed)), //nolint:gosec // Not used for security
	}
}

// SendLine accepts any command without effect.
func (t *SimTransport) SendLine(string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	return nil
}

// ReadLine usually reports no data; occasionally it returns the readiness line.
func (t *SimTransport) ReadLine() (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return "", false, ErrClosed
	}
	if t.rng.Float64() < readinessProbability {
		return t.readiness, true, nil
	}
	return "", false, nil
}

// Close marks the transport closed. Subsequent IO returns ErrClosed.
func (t *SimTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	return nil
}
