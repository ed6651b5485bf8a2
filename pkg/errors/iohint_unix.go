//go:build !windows

package errors

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

func platformHint(err error) string {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return ""
	}
	switch errno {
	case unix.EACCES, unix.EPERM:
		return "permission denied; check ownership and write permissions"
	case unix.EXDEV:
		return "cross-filesystem; atomic rename not possible"
	case unix.EBUSY:
		return "resource busy; ensure no other process is writing"
	case unix.ENOENT:
		return "path not found; verify it exists"
	case unix.EEXIST:
		return "already exists; pick a unique name or remove the target"
	case unix.ENOSPC:
		return "no space left on device"
	}
	return ""
}
