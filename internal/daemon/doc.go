// Package daemon runs the background service: it enforces single-instance
// execution through a lock file, serves the HTTP API, and drains the queue
// with a polling worker.
package daemon
