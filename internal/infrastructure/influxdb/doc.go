// Package influxdb provides optional time-series telemetry for WePower Core.
//
// It wraps the official influxdb-client-go v2 library for:
//   - Scan pass metrics (devices found, read duration per port)
//   - Heartbeat summaries (adapter and device counts, offline demotions)
//   - Device lifecycle transition events
//
// Telemetry is strictly optional: when the influxdb section of config.yaml
// is disabled, Connect returns ErrDisabled and callers run without a client.
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes; batch errors
// are delivered via the SetOnError callback.
package influxdb
