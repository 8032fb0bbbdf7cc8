// Package services defines shared utilities consumed by the pipeline
// controller and the remote service integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging and error reporting.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified into validation, remote, and cleanup outcomes.
//
// Use these helpers when wiring new stage logic so user-facing behaviour
// (notice levels, retry affordances) stays uniform across the pipeline.
package services
