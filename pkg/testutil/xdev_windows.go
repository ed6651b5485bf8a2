//go:build windows

package testutil

import "golang.org/x/sys/windows"

var crossDeviceErrno = windows.ERROR_NOT_SAME_DEVICE
