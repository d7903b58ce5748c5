package store

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
)

// LockFile is the name of the single-writer lock inside the data dir.
const LockFile = ".lock"

// ErrLocked is returned when another process holds the data dir lock.
var ErrLocked = eris.New("store: data dir is locked by another process")

// Lock is an exclusive advisory flock on <data_dir>/.lock. The kernel drops
// it when the holder exits, so a killed process never leaves the dir locked.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the lock without blocking. It fails with ErrLocked if
// another process holds it. A lock file left behind by a dead process is
// reused.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "store: create dir %s", dir)
	}
	path := filepath.Join(dir, LockFile)

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, eris.Wrapf(err, "store: lock %s", path)
	}
	if !ok {
		return nil, eris.Wrapf(ErrLocked, "%s", path)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. The file stays in place for the next holder.
// It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	if err != nil {
		return eris.Wrap(err, "store: release lock")
	}
	return nil
}
