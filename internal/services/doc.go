// Package services carries cross-cutting helpers shared by the external
// service adapters: error classification markers and request-scoped context
// annotations used for structured logging.
package services
