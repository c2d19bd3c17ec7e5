// Package history records batch runs and their per-file outcomes in a SQLite
// database so past runs can be listed and inspected from the CLI.
//
// The schema version lives in SQLite's user_version pragma. A database from
// another version is refused with ErrSchemaMismatch.
package history
