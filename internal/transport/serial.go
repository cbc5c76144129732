package transport

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// LineTransport is the line-oriented IO surface adapters are driven through.
//
// ReadLine returns ok=false when no complete line arrived within the
// transport's read timeout. That is not an error: adapters are frequently
// silent and callers treat no-data as end of the current burst.
type LineTransport interface {
	// SendLine writes one command line to the adapter.
	SendLine(line string) error

	// ReadLine reads one reply line, waiting at most the read timeout.
	ReadLine() (line string, ok bool, err error)

	// Close releases the underlying port.
	Close() error
}

// SerialTransport drives a physical adapter over a serial port.
//
// Reads are buffered: bytes arriving without a terminating newline are kept
// for the next ReadLine call rather than dropped.
type SerialTransport struct {
	port serial.Port
	path string

	readTimeout time.Duration

	mu      sync.Mutex
	pending []byte
	closed  bool
}

// OpenSerial opens the given port path at the configured baud rate.
//
// Parameters:
//   - path: Serial port path (e.g., "/dev/ttyUSB0")
//   - baudRate: Line speed (typically 115200)
//   - readTimeout: Bounded wait for a single reply line
//
// Returns:
//   - *SerialTransport: Open transport ready for line IO
//   - error: Wrapped ErrUnavailable if the port cannot be opened
func OpenSerial(path string, baudRate int, readTimeout time.Duration) (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrUnavailable, path, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: configuring %s: %w", ErrUnavailable, path, err)
	}

	return &SerialTransport{
		port:        port,
		path:        path,
		readTimeout: readTimeout,
	}, nil
}

// Path returns the port path this transport is bound to.
func (t *SerialTransport) Path() string {
	return t.path
}

// SendLine writes one command line, appending the newline terminator.
func (t *SerialTransport) SendLine(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}

	if _, err := t.port.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, t.path, err)
	}
	return nil
}

// ReadLine reads one reply line, waiting at most the read timeout.
//
// A zero-byte read from the port means the timeout elapsed; any bytes
// already received stay buffered for the next call.
func (t *SerialTransport) ReadLine() (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return "", false, ErrClosed
	}

	deadline := time.Now().Add(t.readTimeout)
	buf := make([]byte, 256)

	for {
		if idx := bytes.IndexByte(t.pending, '\n'); idx >= 0 {
			line := strings.TrimRight(string(t.pending[:idx]), "\r")
			t.pending = t.pending[idx+1:]
			return line, true, nil
		}

		if time.Now().After(deadline) {
			return "", false, nil
		}

		n, err := t.port.Read(buf)
		if err != nil {
			return "", false, fmt.Errorf("reading %s: %w", t.path, err)
		}
		if n == 0 {
			// Read timeout elapsed with no complete line
			return "", false, nil
		}
		t.pending = append(t.pending, buf[:n]...)
	}
}

// Close releases the serial port. Subsequent IO returns ErrClosed.
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.pending = nil

	if err := t.port.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", t.path, err)
	}
	return nil
}
