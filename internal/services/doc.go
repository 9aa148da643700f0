// Package services defines shared utilities consumed by the pipeline, queue,
// and CLI layers.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, directions, and run identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (external tool vs configuration vs validation) with errors.Is.
package services
