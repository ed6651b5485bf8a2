//go:build windows

package errors

import (
	"errors"
	"syscall"

	"golang.org/x/sys/windows"
)

func platformHint(err error) string {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return ""
	}
	switch errno {
	case windows.ERROR_ACCESS_DENIED:
		return "access denied; check permissions"
	case windows.ERROR_NOT_SAME_DEVICE:
		return "not same device; cross-filesystem move"
	case windows.ERROR_SHARING_VIOLATION:
		return "sharing violation; file is in use"
	case windows.ERROR_FILE_NOT_FOUND, windows.ERROR_PATH_NOT_FOUND:
		return "path not found; verify it exists"
	case windows.ERROR_FILE_EXISTS, windows.ERROR_ALREADY_EXISTS:
		return "already exists; pick a unique name"
	}
	return ""
}
