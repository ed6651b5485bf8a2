//go:build !windows

package mover

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func isCrossDeviceErrno(errno syscall.Errno) bool {
	return errno == unix.EXDEV
}
