// Package dongle manages the radio adapters discovered on serial ports.
//
// An adapter ("dongle") is identified by probing its port with a plain-text
// handshake and classifying the reply by keyword. Ports that cannot be
// opened are classified provisionally from their name; ports that cannot be
// classified at all are skipped. Once registered, a dongle's transport kind
// never changes and IO failures never evict it.
//
// Connecting a dongle whose port turns out to be unusable degrades to the
// simulated transport from internal/transport, so a misbehaving port still
// shows up on the control plane instead of silently disappearing.
package dongle
