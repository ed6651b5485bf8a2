// Package metadata carries file attributes from a source to its relocated
// copy. Every step is best-effort: failures are reported to the caller for
// logging but never undo a completed move.
package metadata

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// Options selects what is preserved
type Options struct {
	// Full copies mode bits, access/modification times and extended
	// attributes where supported.
	Full bool
	// Permissions copies mode bits only. Ignored when Full is set.
	Permissions bool
}

// Enabled reports whether anything is preserved at all.
func (o Options) Enabled() bool {
	return o.Full || o.Permissions
}

// Apply copies the attributes selected by opts from src (as captured before
// the move) onto dest. srcPath is consulted for extended attributes and may
// be empty when the source no longer exists.
func Apply(srcPath string, src fs.FileInfo, dest string, opts Options) error {
	if !opts.Enabled() || src == nil {
		return nil
	}

	var errs []error
	if err := os.Chmod(dest, src.Mode().Perm()); err != nil {
		errs = append(errs, err)
	}
	if !opts.Full {
		return errors.Join(errs...)
	}

	if srcPath != "" {
		if err := copyXattrs(srcPath, dest); err != nil {
			errs = append(errs, err)
		}
	}
	if err := os.Chtimes(dest, AccessTime(src), src.ModTime()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AccessTime returns the access time recorded in info, falling back to the
// modification time where the platform does not expose it.
func AccessTime(info fs.FileInfo) time.Time {
	if t, ok := accessTime(info); ok {
		return t
	}
	return info.ModTime()
}
