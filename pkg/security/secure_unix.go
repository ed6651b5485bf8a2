//go:build !windows

package security

import (
	"github.com/arthur-debert/ariamove/pkg/errors"
	"golang.org/x/sys/unix"
)

func ensureDirectorySecure(dir string) error {
	var st unix.Stat_t
	if err := unix.Stat(dir, &st); err != nil {
		return errors.WrapIO("stat directory", dir, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return errors.PermissionDenied(dir, "not a directory")
	}
	if st.Mode&0o022 != 0 {
		return errors.PermissionDenied(dir, "directory is writable by group or others")
	}
	if int(st.Uid) != unix.Geteuid() {
		return errors.PermissionDenied(dir, "directory is not owned by the current user")
	}
	return nil
}
