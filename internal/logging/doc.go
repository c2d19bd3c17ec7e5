// Package logging assembles the slog loggers used by whisperbatch.
//
// It owns the console and JSON handlers, the console/file fan-out, and the
// context helpers that tag log lines with the run ID, the file being
// processed and its stage. Warnings should go through WarnWithContext so they
// carry an event type, a hint and an impact.
package logging
