//go:build windows

package mover

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func isCrossDeviceErrno(errno syscall.Errno) bool {
	return errno == windows.ERROR_NOT_SAME_DEVICE
}
