//go:build !windows

package lock

import (
	"errors"
	"os"

	amerrors "github.com/arthur-debert/ariamove/pkg/errors"
	"golang.org/x/sys/unix"
)

// acquire opens path and flocks it. With block=false a contended lock
// yields a nil file and nil error. The sidecar may be unlinked by the
// previous holder between open and flock, so the locked inode is compared
// against the path and the attempt repeated on mismatch.
func acquire(path string, block bool) (*os.File, error) {
	how := unix.LOCK_EX
	if !block {
		how |= unix.LOCK_NB
	}

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
		if err != nil {
			return nil, amerrors.WrapIO("open lock file", path, err)
		}

		if err := flock(int(f.Fd()), how); err != nil {
			_ = f.Close()
			if !block && errors.Is(err, unix.EWOULDBLOCK) {
				return nil, nil
			}
			return nil, amerrors.WrapIO("lock", path, err)
		}

		same, err := sameFile(f, path)
		if err != nil && !os.IsNotExist(err) {
			_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
			_ = f.Close()
			return nil, amerrors.WrapIO("verify lock file", path, err)
		}
		if same {
			return f, nil
		}
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
	}
}

func flock(fd, how int) error {
	for {
		err := unix.Flock(fd, how)
		if err != unix.EINTR {
			return err
		}
	}
}

func sameFile(f *os.File, path string) (bool, error) {
	var held, onDisk unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &held); err != nil {
		return false, err
	}
	if err := unix.Stat(path, &onDisk); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return false, nil
		}
		return false, err
	}
	return held.Dev == onDisk.Dev && held.Ino == onDisk.Ino, nil
}

// release unlinks the sidecar while still holding it, so a waiter that
// opened the old inode notices the mismatch and retries on a fresh file.
func release(path string, f *os.File) error {
	logSidecarFailure(path, os.Remove(path))
	err := unix.Flock(int(f.Fd()), unix.LOCK_UN)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
