// Package mover performs the rename-first half of a relocation.
package mover

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/filesystem"
	"github.com/arthur-debert/ariamove/pkg/logging"
)

// FallbackError is returned by TryRename when the rename failed in a way
// the copy path can recover from: a cross-filesystem boundary or a
// permission problem on the destination.
type FallbackError struct {
	Src  string
	Dest string
	Err  error
}

func (e *FallbackError) Error() string {
	return "rename " + e.Src + " -> " + e.Dest + " not possible, copy required: " + e.Err.Error()
}

func (e *FallbackError) Unwrap() error {
	return e.Err
}

// IsFallback reports whether err asks the caller to copy instead.
func IsFallback(err error) bool {
	var fe *FallbackError
	return stderrors.As(err, &fe)
}

// Mover renames entries through a filesystem seam
type Mover struct {
	fs filesystem.FS
}

// New creates a Mover. A nil fs uses the OS filesystem.
func New(fsys filesystem.FS) *Mover {
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	return &Mover{fs: fsys}
}

// TryRename renames src to dest in place. Where rename cannot replace an
// existing destination the destination is removed first. After success the
// destination's parent directory is synced before returning. Cross-device
// and permission failures come back as *FallbackError; anything else is
// fatal.
func (m *Mover) TryRename(src, dest string) error {
	logger := logging.GetLogger("mover")

	if runtime.GOOS == "windows" {
		if err := m.fs.Remove(dest); err != nil && !os.IsNotExist(err) {
			return classify(src, dest, err, "remove existing destination")
		}
	}

	if err := m.fs.Rename(src, dest); err != nil {
		return classify(src, dest, err, "rename")
	}

	if err := filesystem.SyncDir(filepath.Dir(dest)); err != nil {
		// The rename happened; durability of the directory entry is best-effort.
		logger.Debug().Err(err).Str("dir", filepath.Dir(dest)).Msg("directory sync after rename failed")
	}
	logger.Debug().Str("src", src).Str("dest", dest).Msg("renamed")
	return nil
}

func classify(src, dest string, err error, op string) error {
	if IsCrossDevice(err) || stderrors.Is(err, fs.ErrPermission) {
		return &FallbackError{Src: src, Dest: dest, Err: err}
	}
	return errors.WrapIO(op, dest, err).WithDetail("source", src)
}

// IsCrossDevice reports whether err is a cross-filesystem rename failure.
func IsCrossDevice(err error) bool {
	var errno syscall.Errno
	if !stderrors.As(err, &errno) {
		return false
	}
	return isCrossDeviceErrno(errno)
}
