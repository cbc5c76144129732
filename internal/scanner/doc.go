// Package scanner runs the periodic device scan and heartbeat loops.
//
// The Orchestrator polls every active adapter for device announcements on a
// fixed interval, feeding discoveries into the device registry and demoting
// devices that stop answering. The Monitor publishes a liveness heartbeat
// alongside it. Both loops are supervised and run until stopped.
package scanner
