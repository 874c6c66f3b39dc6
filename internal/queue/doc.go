// Package queue persists bridge items in SQLite and exposes the state
// transitions the workflow manager drives them through. Each item records
// one remote file identity (path, size, modification time) so the poller
// never enqueues the same arrival twice.
package queue
