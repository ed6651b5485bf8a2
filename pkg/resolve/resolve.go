// Package resolve picks the entry a relocation should move when the caller
// does not name one.
package resolve

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/logging"
	"github.com/arthur-debert/ariamove/pkg/naming"
	"github.com/arthur-debert/ariamove/pkg/paths"
	"github.com/arthur-debert/ariamove/pkg/relocate"
	"github.com/arthur-debert/ariamove/pkg/security"
	"github.com/arthur-debert/ariamove/pkg/shutdown"
	"github.com/arthur-debert/ariamove/pkg/stability"
)

// MaxDepth is how many levels below the staging root are scanned.
const MaxDepth = 4

// candidate is the newest qualifying file seen so far
type candidate struct {
	path    string
	modTime time.Time
}

func (c *candidate) offer(path string, mod time.Time) {
	switch {
	case c.path == "", mod.After(c.modTime):
	case mod.Equal(c.modTime) && path < c.path:
	default:
		return
	}
	c.path, c.modTime = path, mod
}

// SourcePath returns the entry to move. An explicit path that exists is
// returned as is, file or directory; a symlink or special file there fails
// with the engine's rejection. Otherwise the staging root is scanned
// for the most recently modified regular file within req.RecencyWindow
// (zero means any age). Equal times go to the lexically smallest path.
// Incomplete downloads and engine files never qualify.
func SourcePath(ctx context.Context, req relocate.Request, explicit string) (string, error) {
	logger := logging.GetLogger("resolve")

	if explicit != "" {
		p, err := filepath.Abs(paths.ExpandHome(explicit))
		if err != nil {
			return "", errors.WrapIO("resolve absolute path", explicit, err)
		}
		err = security.RejectIfSymlink(p)
		switch {
		case err == nil:
			return p, nil
		case errors.IsErrorCode(err, errors.ErrSymlinkRejected), errors.IsErrorCode(err, errors.ErrSpecialFile):
			return "", err
		}
		logger.Warn().Str("path", p).Msg("provided source path does not exist, scanning staging root")
	}

	base := req.StagingRoot
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		return "", errors.BaseInvalid(base)
	}

	var cutoff time.Time
	if req.RecencyWindow > 0 {
		cutoff = time.Now().Add(-req.RecencyWindow)
	}

	var best candidate
	scanned, denied := 0, 0
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if shutdown.Requested(ctx) {
			return errors.Interrupted()
		}
		if err != nil {
			if os.IsPermission(err) {
				denied++
				return nil
			}
			if path == base {
				return err
			}
			logger.Debug().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}
		if path == base {
			return nil
		}

		depth := strings.Count(filepath.ToSlash(mustRel(base, path)), "/") + 1
		if d.IsDir() {
			if depth >= MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || stability.HasIncompleteSuffix(d.Name()) || naming.IsEngineFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		scanned++
		if !cutoff.IsZero() && info.ModTime().Before(cutoff) {
			return nil
		}
		best.offer(path, info.ModTime())
		return nil
	})
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrInterrupted) {
			return "", err
		}
		return "", errors.WrapIO("scan staging root", base, err)
	}

	if best.path == "" {
		logger.Debug().Int("scanned", scanned).Int("denied", denied).Str("base", base).Msg("no candidate found")
		return "", errors.NoneFound(base)
	}

	// Re-validate; the file may have been moved while scanning.
	if info, err := os.Stat(best.path); err != nil || !info.Mode().IsRegular() {
		return "", errors.Disappeared(best.path)
	}
	logger.Debug().Int("scanned", scanned).Int("denied", denied).Str("chosen", best.path).Msg("resolved source")
	return best.path, nil
}

func mustRel(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
