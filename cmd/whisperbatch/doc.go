// Command whisperbatch transcribes every audio file in a directory and
// writes JSON, plain text and SRT transcripts next to each other in the
// output directory.
//
// Running the binary without a subcommand starts a batch run. The check
// subcommand reports missing dependencies before a long run, config
// manages the configuration file, and history lists previous runs when the
// SQLite history is enabled.
package main
