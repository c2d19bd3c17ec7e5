package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"whisperbatch/internal/services"
)

// LockFileName is created in the output directory for the duration of a run.
const LockFileName = ".whisperbatch.lock"

// acquireRunLock takes a non-blocking exclusive lock on the output
// directory. A lock held by another process is a configuration error.
func acquireRunLock(outputDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(filepath.Join(outputDir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "run", "acquire run lock",
			fmt.Sprintf("another whisperbatch run is writing to %s", outputDir), nil)
	}
	return lock, nil
}
