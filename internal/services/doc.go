// Package services defines shared utilities consumed by the pipeline and the
// external model integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, file names, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified consistently in logs and the run history.
//
// Concrete model backends live in subpackages (whisperx, openaiasr).
package services
