// Package testsupport provides fixtures shared by package tests: temp-dir
// configs, WAV and filler files, and a throwaway history store.
package testsupport
