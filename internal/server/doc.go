// Package server exposes the HTTP surface: video upload and processing,
// artifact download, and queue inspection. Internal diagnostics are logged
// server-side and never returned to callers verbatim.
package server
