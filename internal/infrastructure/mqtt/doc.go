// Package mqtt provides the MQTT client infrastructure for WePower Core.
//
// It wraps the Eclipse Paho MQTT client with:
//   - Connection management with automatic reconnection
//   - Last Will and Testament (LWT) for crash detection
//   - Subscription tracking with automatic re-subscription on reconnect
//   - An offline outbox: messages published while disconnected are queued
//     and flushed once the connection is re-established
//   - Panic recovery in message handlers
//   - Topic construction helpers under the wepower_iot/ namespace
//
// The package is transport-only: payload encoding and topic semantics
// belong to the bridge layer (internal/bridge).
package mqtt
