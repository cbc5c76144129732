package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteScanMetric records the outcome of one scan pass over a dongle.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - port: Serial port of the adapter that was scanned
//   - kind: Transport kind of the adapter (e.g., "ble", "zigbee")
//   - devicesFound: Number of announcements parsed in this pass
//   - duration: Wall-clock time spent reading the port
func (c *Client) WriteScanMetric(port string, kind string, devicesFound int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"scan",
		map[string]string{
			"port": port,
			"kind": kind,
		},
		map[string]interface{}{
			"devices_found": devicesFound,
			"duration_ms":   duration.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteHeartbeatMetric records a heartbeat summary.
//
// Parameters:
//   - dongles: Number of adapters currently registered
//   - devices: Number of devices currently tracked
//   - offline: Number of devices demoted to offline
func (c *Client) WriteHeartbeatMetric(dongles int, devices int, offline int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"heartbeat",
		nil,
		map[string]interface{}{
			"dongles": dongles,
			"devices": devices,
			"offline": offline,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteLifecycleEvent records a device status transition.
//
// Parameters:
//   - deviceID: Device identifier
//   - from: Previous status (e.g., "connected")
//   - to: New status (e.g., "offline")
func (c *Client) WriteLifecycleEvent(deviceID string, from string, to string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"lifecycle",
		map[string]string{
			"device_id": deviceID,
			"from":      from,
			"to":        to,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
