// Package database provides the SQLite connection layer for the device
// lifecycle journal.
//
// The journal is append-only: schema creation and writes live with the
// journal implementation in internal/device; this package owns connection
// setup (WAL mode, busy timeout, file permissions) and health checks.
package database
