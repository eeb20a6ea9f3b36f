// Package config loads, normalizes, and validates the subfuse TOML
// configuration. Loading always starts from repository defaults so a missing
// file yields a runnable configuration for local use.
package config
