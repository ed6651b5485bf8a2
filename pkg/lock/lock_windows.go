//go:build windows

package lock

import (
	"errors"
	"os"
	"time"

	amerrors "github.com/arthur-debert/ariamove/pkg/errors"
	"golang.org/x/sys/windows"
)

const retryInterval = 50 * time.Millisecond

// acquire opens path with no sharing, which makes the handle itself the
// lock. A sharing violation means another holder; blocking callers retry.
func acquire(path string, block bool) (*os.File, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, amerrors.WrapIO("open lock file", path, err)
	}

	for {
		h, err := windows.CreateFile(p,
			windows.GENERIC_READ|windows.GENERIC_WRITE,
			0,
			nil,
			windows.OPEN_ALWAYS,
			windows.FILE_ATTRIBUTE_NORMAL,
			0)
		if err == nil {
			return os.NewFile(uintptr(h), path), nil
		}
		if !errors.Is(err, windows.ERROR_SHARING_VIOLATION) {
			return nil, amerrors.WrapIO("open lock file", path, err)
		}
		if !block {
			return nil, nil
		}
		time.Sleep(retryInterval)
	}
}

// release closes the exclusive handle first; the file cannot be deleted
// while it is open. Another process may already have reopened it, in which
// case the removal fails harmlessly.
func release(path string, f *os.File) error {
	err := f.Close()
	logSidecarFailure(path, os.Remove(path))
	return err
}
