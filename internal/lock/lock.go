// Package lock keeps two kosu processes from mutating the same workspace.
package lock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Filename is the lock file created in the workspace by the first command
// that takes the lock.
const Filename = ".kosu.lock"

// ErrLocked is returned when another process holds the workspace lock.
var ErrLocked = errors.New("another kosu command is running in this directory")

// Workspace is an acquired workspace lock.
type Workspace struct {
	lock *flock.Flock
}

// Acquire takes the lock of the workspace rooted at dir without waiting.
func Acquire(dir string) (*Workspace, error) {
	l := flock.New(filepath.Join(dir, Filename))

	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	if !ok {
		return nil, ErrLocked
	}

	return &Workspace{lock: l}, nil
}

// Release drops the lock. The lock file stays in place: removing it would let
// a waiting process lock the unlinked inode while a newer one locks a fresh
// file at the same path.
func (w *Workspace) Release() error {
	if err := w.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}

	return nil
}
