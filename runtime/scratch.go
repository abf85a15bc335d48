package runtime

import (
	"os"
	"sync"
)

// Scratch owns a run's private temp directory. Acquired before the run
// starts and released exactly once on every exit path (normal
// completion, error, or interruption) via sync.Once, so signal
// handlers and defers can both call Release safely.
type Scratch struct {
	dir  string
	once sync.Once
	err  error
}

// NewScratch creates a private temp directory for one run.
func NewScratch() (*Scratch, error) {
	dir, err := os.MkdirTemp("", "dexfetch-run-*")
	if err != nil {
		return nil, err
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the scratch directory path.
func (s *Scratch) Dir() string { return s.dir }

// Release removes the scratch directory and everything in it.
// Idempotent: only the first call performs the removal.
func (s *Scratch) Release() error {
	s.once.Do(func() {
		s.err = os.RemoveAll(s.dir)
	})
	return s.err
}
