package testsupport

import (
	"path/filepath"
	"testing"

	"whisperbatch/internal/history"
)

// MustOpenHistory opens a history store in a temp directory and registers
// cleanup.
func MustOpenHistory(t testing.TB) *history.Store {
	t.Helper()

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
