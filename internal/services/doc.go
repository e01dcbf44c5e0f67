// Package services defines shared utilities consumed by the import pipeline
// and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp resource names, source files, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (bad input, broken project document, filesystem) without
//     parsing messages.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform.
package services
