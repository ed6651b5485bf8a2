// Package lock provides directory-scoped exclusive locks shared across
// processes.
//
// A directory is locked through a sidecar file (".ariamove.dir.lock") inside
// it. On unix the sidecar is held with flock(2); on Windows it is opened
// without sharing. Either way the lock is released when the Handle is
// released or the process exits.
package lock

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/arthur-debert/ariamove/pkg/logging"
	"github.com/arthur-debert/ariamove/pkg/naming"
)

// DirectoryLock acquires exclusive locks on directories
type DirectoryLock interface {
	// Acquire blocks until dir is exclusively locked.
	Acquire(dir string) (*Handle, error)

	// TryAcquire returns immediately. A nil handle with a nil error means
	// another holder has the lock; contention is not an error.
	TryAcquire(dir string) (*Handle, error)
}

// Handle is a held directory lock. Release must be called on every exit
// path, normally with defer.
type Handle struct {
	mu       sync.Mutex
	dir      string
	path     string
	file     *os.File
	released bool
}

// Dir returns the locked directory.
func (h *Handle) Dir() string {
	if h == nil {
		return ""
	}
	return h.dir
}

// Release drops the OS lock and best-effort removes the sidecar file. A
// sidecar removal failure is logged, never returned. Release is idempotent
// and safe on a nil handle.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true

	if h.file == nil {
		return nil
	}

	err := release(h.path, h.file)
	h.file = nil
	return err
}

// SidecarPath returns the lock file used for dir.
func SidecarPath(dir string) string {
	return filepath.Join(dir, naming.LockFileName)
}

// New returns the platform lock implementation, or a no-op one when
// enabled is false.
func New(enabled bool) DirectoryLock {
	if !enabled {
		return noopLock{}
	}
	return fileLock{}
}

type fileLock struct{}

func (fileLock) Acquire(dir string) (*Handle, error) {
	path := SidecarPath(dir)
	f, err := acquire(path, true)
	if err != nil {
		return nil, err
	}
	logger := logging.GetLogger("lock")
	logger.Trace().Str("dir", dir).Msg("lock acquired")
	return &Handle{dir: dir, path: path, file: f}, nil
}

func (fileLock) TryAcquire(dir string) (*Handle, error) {
	path := SidecarPath(dir)
	f, err := acquire(path, false)
	if err != nil || f == nil {
		return nil, err
	}
	return &Handle{dir: dir, path: path, file: f}, nil
}

type noopLock struct{}

func (noopLock) Acquire(dir string) (*Handle, error) {
	return &Handle{dir: dir}, nil
}

func (noopLock) TryAcquire(dir string) (*Handle, error) {
	return &Handle{dir: dir}, nil
}

func logSidecarFailure(path string, err error) {
	if err == nil || os.IsNotExist(err) {
		return
	}
	logger := logging.GetLogger("lock")
	logger.Debug().Err(err).Str("path", path).Msg("could not remove lock sidecar")
}
