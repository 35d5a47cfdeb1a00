package cmd

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

var ErrRunLocked = errors.New("another dqwatch run holds the lock")

type runLock struct {
	flock *flock.Flock
	path  string
}

// acquireRunLock takes an exclusive, non-blocking lock so overlapping runs
// never share the result store.
func acquireRunLock(path string) (*runLock, error) {
	fl := flock.New(path)
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock on %s: %w", path, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrRunLocked, path)
	}
	return &runLock{flock: fl, path: path}, nil
}

func (l *runLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
