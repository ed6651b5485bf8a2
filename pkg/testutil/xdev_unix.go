//go:build !windows

package testutil

import "golang.org/x/sys/unix"

var crossDeviceErrno = unix.EXDEV
