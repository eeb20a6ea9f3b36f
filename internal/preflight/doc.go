// Package preflight validates the runtime environment before processing:
// directory access, scratch space, external binaries, and the translation
// API endpoint.
package preflight
