// Package subtitle defines the timed text segment model shared across the
// pipeline and the SRT serialization used by the compositor's external tool.
package subtitle
