package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/arthur-debert/ariamove/pkg/filesystem"
	"github.com/arthur-debert/ariamove/pkg/naming"
)

// FaultFS wraps a filesystem.FS and lets a test fail selected renames.
type FaultFS struct {
	filesystem.FS

	mu       sync.Mutex
	failWith func(oldpath, newpath string) error

	renames atomic.Int64
	failed  atomic.Int64
}

// NewFaultFS wraps base. A nil base uses the OS filesystem.
func NewFaultFS(base filesystem.FS) *FaultFS {
	if base == nil {
		base = filesystem.NewOS()
	}
	return &FaultFS{FS: base}
}

// CrossDeviceFS returns a FaultFS on the OS filesystem whose renames fail
// with the platform's cross-device error, except renames from or to an
// engine-owned name (temp promotions, displaced destinations). That mimics
// a staging and destination root on different filesystems.
func CrossDeviceFS() *FaultFS {
	f := NewFaultFS(nil)
	f.FailRenames(func(oldpath, newpath string) error {
		if naming.IsEngineFile(filepath.Base(oldpath)) || naming.IsEngineFile(filepath.Base(newpath)) {
			return nil
		}
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: crossDeviceErrno}
	})
	return f
}

// FailRenames installs fn; a non-nil return fails the rename with it.
func (f *FaultFS) FailRenames(fn func(oldpath, newpath string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = fn
}

// Rename implements filesystem.FS
func (f *FaultFS) Rename(oldpath, newpath string) error {
	f.renames.Add(1)

	f.mu.Lock()
	fn := f.failWith
	f.mu.Unlock()

	if fn != nil {
		if err := fn(oldpath, newpath); err != nil {
			f.failed.Add(1)
			return err
		}
	}
	return f.FS.Rename(oldpath, newpath)
}

// Renames returns how many renames were attempted.
func (f *FaultFS) Renames() int64 {
	return f.renames.Load()
}

// FailedRenames returns how many renames were failed on purpose.
func (f *FaultFS) FailedRenames() int64 {
	return f.failed.Load()
}
