// Package logging builds the slog loggers used across subfuse: a pretty
// console handler for interactive use, a JSON handler for machine ingestion,
// and helpers that derive structured fields from request context.
package logging
