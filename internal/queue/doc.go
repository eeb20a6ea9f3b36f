// Package queue persists subtitling requests in SQLite and tracks each
// request through the pipeline's status lifecycle. The store is safe for
// concurrent use by the daemon, the HTTP API, and the CLI.
package queue
