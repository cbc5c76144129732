// Package transport provides line-oriented IO to radio adapters.
//
// It contains the serial port implementation (go.bug.st/serial), the
// simulated transport used when a port cannot be opened, the include/exclude
// port filter, and port enumeration with a simulation-gated fixture fallback.
//
// Everything above this package speaks LineTransport; whether lines travel
// over a physical port or the synthetic bus is invisible to callers.
package transport
