// Package stability decides whether a file is still being written.
package stability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/logging"
	"github.com/arthur-debert/ariamove/pkg/shutdown"
)

// Defaults used when the caller configures nothing
const (
	DefaultInterval = 200 * time.Millisecond
	DefaultAttempts = 3
)

// incompleteSuffixes are extensions download tools give files they are
// still writing.
var incompleteSuffixes = []string{".part", ".aria2", ".tmp", ".crdownload"}

// HasIncompleteSuffix reports whether name ends in a known in-progress
// download extension. Matching is case-insensitive.
func HasIncompleteSuffix(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range incompleteSuffixes {
		if ext == s {
			return true
		}
	}
	return false
}

// IsStable samples the size of path attempts+1 times, interval apart, and
// returns true as soon as two consecutive samples match. Known incomplete
// suffixes are unstable without sampling. Between samples the shutdown flag
// and ctx are polled; either aborts the probe with Interrupted.
func IsStable(ctx context.Context, path string, interval time.Duration, attempts int) (bool, error) {
	logger := logging.GetLogger("stability")

	if HasIncompleteSuffix(path) {
		logger.Debug().Str("path", path).Msg("incomplete download suffix, treating as unstable")
		return false, nil
	}
	if attempts < 1 {
		attempts = 1
	}

	last, err := sizeOf(path)
	if err != nil {
		return false, err
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for i := 0; i < attempts; i++ {
		if i > 0 {
			timer.Reset(interval)
		}
		select {
		case <-ctx.Done():
			return false, errors.Interrupted()
		case <-timer.C:
		}
		if shutdown.IsRequested() {
			return false, errors.Interrupted()
		}

		size, err := sizeOf(path)
		if err != nil {
			return false, err
		}
		if size == last {
			logger.Trace().Str("path", path).Int64("size", size).Int("sample", i+2).Msg("size stable")
			return true, nil
		}
		last = size
	}

	logger.Debug().Str("path", path).Int("attempts", attempts).Msg("size kept changing")
	return false, nil
}

// Check is IsStable turned into a single error: Unstable when the file is
// still changing.
func Check(ctx context.Context, path string, interval time.Duration, attempts int) error {
	stable, err := IsStable(ctx, path, interval, attempts)
	if err != nil {
		return err
	}
	if !stable {
		return errors.Unstable(path)
	}
	return nil
}

func sizeOf(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Disappeared(path)
		}
		return 0, errors.WrapIO("stat", path, err)
	}
	return info.Size(), nil
}
