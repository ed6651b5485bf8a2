package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/logging"
	"github.com/arthur-debert/ariamove/pkg/paths"
	"github.com/arthur-debert/ariamove/pkg/security"
	"github.com/rs/zerolog"
)

// Validate normalizes both roots to absolute, symlink-free paths and checks
// the rest of the settings. The destination root is created (0700) when
// missing unless this is a dry run.
func (c *Config) Validate() error {
	logger := logging.GetLogger("config")

	if c.Workers < 0 {
		return invalid("workers must not be negative, got %d", c.Workers)
	}
	if c.Stability.Attempts < 1 {
		return invalid("stability.attempts must be at least 1, got %d", c.Stability.Attempts)
	}
	if c.Stability.Interval < 0 {
		return invalid("stability.interval must not be negative, got %s", c.Stability.Interval)
	}
	if c.RecencyWindow < 0 {
		return invalid("recency_window must not be negative, got %s", c.RecencyWindow)
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
			return invalid("unknown log_level %q", c.LogLevel)
		}
	}

	staging, err := normalizeRoot("staging_root", c.StagingRoot)
	if err != nil {
		return err
	}
	dest, err := normalizeRoot("destination_root", c.DestinationRoot)
	if err != nil {
		return err
	}

	info, err := os.Stat(staging)
	if err != nil || !info.IsDir() {
		return errors.BaseInvalid(staging).WithDetail("setting", "staging_root")
	}
	if err := readable(staging); err != nil {
		return err
	}

	if _, err := os.Stat(dest); os.IsNotExist(err) && !c.DryRun {
		logger.Info().Str("path", dest).Msg("creating destination root")
		if err := os.MkdirAll(dest, 0o700); err != nil {
			return errors.WrapIO("create destination root", dest, err)
		}
	}
	if info, err := os.Stat(dest); err == nil {
		if !info.IsDir() {
			return errors.BaseInvalid(dest).WithDetail("setting", "destination_root")
		}
		if err := security.WritableProbe(dest); err != nil {
			return err
		}
	} else if !c.DryRun {
		return errors.WrapIO("inspect destination root", dest, err)
	}

	// Ancestors are link-free; only the final component may still resolve.
	resolved, err := filepath.EvalSymlinks(staging)
	if err != nil {
		return errors.WrapIO("resolve staging root", staging, err)
	}
	staging = resolved
	if resolved, err := filepath.EvalSymlinks(dest); err == nil {
		dest = resolved
	}
	if staging == dest {
		return invalid("staging_root and destination_root are the same directory: %s", staging)
	}

	for _, root := range []string{staging, dest} {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		if err := security.EnsureDirectorySecure(root); err != nil {
			if c.StrictPermissions {
				return err
			}
			logger.Warn().Err(err).Str("path", root).Msg("insecure root directory")
		}
	}

	c.StagingRoot, c.DestinationRoot = staging, dest
	return nil
}

// normalizeRoot expands ~ and makes the root absolute, refusing roots that
// sit below a symlinked directory.
func normalizeRoot(setting, root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", invalid("%s must be set", setting)
	}
	abs, err := filepath.Abs(paths.ExpandHome(root))
	if err != nil {
		return "", errors.WrapIO("resolve absolute path", root, err)
	}
	linked, err := security.HasSymlinkAncestor(abs)
	if err != nil {
		return "", err
	}
	if linked {
		return "", errors.Newf(errors.ErrConfigValid, "%s has a symlinked ancestor: %s", setting, abs).
			WithDetail("path", abs).WithDetail("setting", setting)
	}
	return filepath.Clean(abs), nil
}

func readable(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return errors.WrapIO("open staging root", dir, err)
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := f.Readdirnames(1); err != nil && err != io.EOF {
		return errors.WrapIO("read staging root", dir, err)
	}
	return nil
}

func invalid(format string, args ...interface{}) *errors.Error {
	return errors.Newf(errors.ErrConfigValid, format, args...)
}
