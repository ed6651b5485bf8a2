// Package security guards the relocation engine against redirected or
// unexpected filesystem entries: symlinked ancestors, symlinks and special
// files, and directories other users can tamper with.
package security

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/ariamove/pkg/errors"
)

const specialMask = fs.ModeNamedPipe | fs.ModeSocket | fs.ModeDevice | fs.ModeCharDevice | fs.ModeIrregular

// HasSymlinkAncestor walks upward from path's parent and reports whether any
// existing ancestor is a symlink. Ancestors that do not exist are skipped.
func HasSymlinkAncestor(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, errors.WrapIO("resolve absolute path", path, err)
	}

	dir := filepath.Dir(abs)
	for {
		info, err := os.Lstat(dir)
		switch {
		case err == nil:
			if info.Mode()&fs.ModeSymlink != 0 {
				return true, nil
			}
		case os.IsNotExist(err):
		default:
			return false, errors.WrapIO("inspect ancestor", dir, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return false, nil
		}
		dir = parent
	}
}

// RejectIfSymlink fails when path is a symlink or a special file (socket,
// FIFO or device). It never follows the final component.
func RejectIfSymlink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.SourceNotFound(path)
		}
		return errors.WrapIO("inspect entry", path, err)
	}
	return RejectMode(path, info.Mode())
}

// RejectMode applies the symlink and special-file checks to an already
// obtained mode.
func RejectMode(path string, mode fs.FileMode) error {
	if mode&fs.ModeSymlink != 0 {
		return errors.SymlinkRejected(path)
	}
	if mode&specialMask != 0 {
		return errors.SpecialFile(path)
	}
	return nil
}

// EnsureDirectorySecure fails with PermissionDenied when dir is writable by
// group or others, or is not owned by the current effective user.
func EnsureDirectorySecure(dir string) error {
	return ensureDirectorySecure(dir)
}

// WritableProbe creates and removes a uniquely named file in dir to prove it
// accepts new entries. Existing files are never touched.
func WritableProbe(dir string) error {
	probe := filepath.Join(dir, fmt.Sprintf(".ariamove.probe.%d.tmp", os.Getpid()))
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return errors.WrapIO("write probe", dir, err)
	}
	_ = f.Close()
	_ = os.Remove(probe)
	return nil
}
