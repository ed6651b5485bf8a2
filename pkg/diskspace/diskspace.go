// Package diskspace checks that a destination filesystem can hold a copy
// before the copy starts.
package diskspace

import (
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/logging"
)

// Cushion is required on top of the byte count of every copy, leaving room
// for metadata, journal and temp usage.
const Cushion uint64 = 4 * 1024 * 1024

// Available returns the bytes available to an unprivileged user on the
// filesystem hosting path.
func Available(path string) (uint64, error) {
	n, err := available(path)
	if err != nil {
		return 0, errors.WrapIO("query free space", path, err)
	}
	return n, nil
}

// Ensure fails with InsufficientSpace when dir's filesystem has fewer than
// required+Cushion bytes available.
func Ensure(dir string, required uint64) error {
	avail, err := Available(dir)
	if err != nil {
		return err
	}
	return Check(dir, required, avail)
}

// Check compares required (plus Cushion) against available.
func Check(dir string, required, available uint64) error {
	need := required + Cushion
	if need < required {
		need = ^uint64(0)
	}
	logger := logging.GetLogger("diskspace")
	logger.Trace().
		Str("dir", dir).
		Uint64("required", required).
		Uint64("available", available).
		Msg("space preflight")
	if available < need {
		return errors.InsufficientSpace(required, available, dir)
	}
	return nil
}

// TreeSize sums the sizes of the regular files under root. Symlinks are not
// followed and count as zero.
func TreeSize(root string) (uint64, error) {
	var total uint64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += uint64(info.Size())
		return nil
	})
	if err != nil {
		return 0, errors.WrapIO("measure tree", root, err)
	}
	return total, nil
}
