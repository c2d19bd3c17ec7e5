// Package logs reads the run log file for the CLI logs command.
//
// Last returns the final lines of the file with bounded memory, and Follow
// streams lines appended after a given offset until the context ends.
// Both accept a substring filter so a single run can be isolated by its
// run_id.
package logs
