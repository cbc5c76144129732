// Package bridge connects the registries to the MQTT message bus.
//
// Inbound it decodes control and device command messages; outbound it
// publishes system status, device snapshots and adapter snapshots. It is
// the single place where bus payload shapes are defined.
package bridge
