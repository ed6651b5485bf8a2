//go:build linux || darwin

package metadata

import (
	"bytes"
	"errors"

	"golang.org/x/sys/unix"
)

// copyXattrs copies every readable extended attribute of src onto dest.
// Filesystems without xattr support are not an error.
func copyXattrs(src, dest string) error {
	names, err := listXattrs(src)
	if err != nil {
		if errors.Is(err, unix.ENOTSUP) {
			return nil
		}
		return err
	}

	var errs []error
	for _, name := range names {
		val, err := getXattr(src, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := unix.Setxattr(dest, name, val, 0); err != nil && !errors.Is(err, unix.ENOTSUP) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func listXattrs(path string) ([]string, error) {
	size, err := unix.Listxattr(path, nil)
	if err != nil || size <= 0 {
		return nil, err
	}
	buf := make([]byte, size)
	size, err = unix.Listxattr(path, buf)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, n := range bytes.Split(buf[:size], []byte{0}) {
		if len(n) > 0 {
			names = append(names, string(n))
		}
	}
	return names, nil
}

func getXattr(path, name string) ([]byte, error) {
	size, err := unix.Getxattr(path, name, nil)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}
	size, err = unix.Getxattr(path, name, buf)
	if err != nil {
		return nil, err
	}
	return buf[:size], nil
}
