//go:build windows

package security

import (
	"github.com/arthur-debert/ariamove/pkg/errors"
	"golang.org/x/sys/windows"
)

// Windows has no mode bits worth checking; a read-only directory is the one
// condition that makes it unusable as a relocation root.
func ensureDirectorySecure(dir string) error {
	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidInput, "invalid directory path").WithDetail("path", dir)
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return errors.WrapIO("read attributes", dir, err)
	}
	if attrs&windows.FILE_ATTRIBUTE_DIRECTORY == 0 {
		return errors.PermissionDenied(dir, "not a directory")
	}
	if attrs&windows.FILE_ATTRIBUTE_READONLY != 0 {
		return errors.PermissionDenied(dir, "directory is read-only")
	}
	return nil
}
