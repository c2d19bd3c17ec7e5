// Package models owns the lifecycle of the three external models a run uses:
// speech recognition, forced alignment and speaker diarization.
//
// The Manager loads each model lazily through a Backend, caches it for the
// rest of the run (the alignment model is cached per language), and unloads
// everything in Cleanup. It also resolves the device placement: "auto"
// becomes cuda when an NVIDIA GPU is present, and half precision is not
// requested on a CPU.
package models
