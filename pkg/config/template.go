package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/filesystem"
	"github.com/arthur-debert/ariamove/pkg/naming"
	"github.com/arthur-debert/ariamove/pkg/security"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config with durations rendered as strings, the shape a
// user would write by hand.
type fileConfig struct {
	StagingRoot         string        `toml:"staging_root" yaml:"staging_root"`
	DestinationRoot     string        `toml:"destination_root" yaml:"destination_root"`
	RecencyWindow       string        `toml:"recency_window" yaml:"recency_window"`
	DryRun              bool          `toml:"dry_run" yaml:"dry_run"`
	PreserveMetadata    bool          `toml:"preserve_metadata" yaml:"preserve_metadata"`
	PreservePermissions bool          `toml:"preserve_permissions" yaml:"preserve_permissions"`
	LocksEnabled        bool          `toml:"locks_enabled" yaml:"locks_enabled"`
	OnDuplicate         string        `toml:"on_duplicate" yaml:"on_duplicate"`
	Workers             int           `toml:"workers" yaml:"workers"`
	Verify              bool          `toml:"verify" yaml:"verify"`
	ReconcileOnStart    bool          `toml:"reconcile_on_start" yaml:"reconcile_on_start"`
	StrictPermissions   bool          `toml:"strict_permissions" yaml:"strict_permissions"`
	LogFile             string        `toml:"log_file" yaml:"log_file"`
	LogLevel            string        `toml:"log_level" yaml:"log_level"`
	Stability           fileStability `toml:"stability" yaml:"stability"`
}

type fileStability struct {
	Interval string `toml:"interval" yaml:"interval"`
	Attempts int    `toml:"attempts" yaml:"attempts"`
}

func (c *Config) toFile() fileConfig {
	return fileConfig{
		StagingRoot:         c.StagingRoot,
		DestinationRoot:     c.DestinationRoot,
		RecencyWindow:       c.RecencyWindow.String(),
		DryRun:              c.DryRun,
		PreserveMetadata:    c.PreserveMetadata,
		PreservePermissions: c.PreservePermissions,
		LocksEnabled:        c.LocksEnabled,
		OnDuplicate:         c.OnDuplicate.String(),
		Workers:             c.Workers,
		Verify:              c.Verify,
		ReconcileOnStart:    c.ReconcileOnStart,
		StrictPermissions:   c.StrictPermissions,
		LogFile:             c.LogFile,
		LogLevel:            c.LogLevel,
		Stability: fileStability{
			Interval: c.Stability.Interval.String(),
			Attempts: c.Stability.Attempts,
		},
	}
}

// Marshal renders the effective configuration as "toml" or "yaml".
func (c *Config) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "toml":
		return toml.Marshal(c.toFile())
	case "yaml", "yml":
		return yaml.Marshal(c.toFile())
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format %q (want toml or yaml)", format).
			WithDetail("value", format)
	}
}

// TemplateContent returns the defaults with every setting commented out, so
// a fresh file changes nothing until the user edits it.
func TemplateContent() string {
	return commentOutConfigValues(DefaultsContent())
}

// commentOutConfigValues comments out assignment lines and leaves comments,
// blank lines and section headers alone
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "", strings.HasPrefix(trimmed, "#"):
			result = append(result, line)
		case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
			result = append(result, line)
		default:
			result = append(result, "# "+line)
		}
	}
	return strings.Join(result, "\n")
}

// WriteTemplate creates path with the template content. An existing file is
// never replaced. The file is written under a temp name, synced, then
// published.
func WriteTemplate(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.WrapIO("resolve absolute path", path, err)
	}
	if _, err := os.Lstat(abs); err == nil {
		return errors.Newf(errors.ErrInvalidInput, "config file already exists: %s", abs).WithDetail("path", abs)
	}
	linked, err := security.HasSymlinkAncestor(abs)
	if err != nil {
		return err
	}
	if linked {
		return errors.Newf(errors.ErrConfigValid, "refusing to write below a symlinked directory: %s", abs).
			WithDetail("path", abs)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.WrapIO("create config directory", dir, err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf("%s%s%d", filepath.Base(abs), naming.ConfigTmpInfix, os.Getpid()))
	if err := writeSynced(tmp, []byte(TemplateContent())); err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp)
	}()

	// Link refuses to clobber; rename is the fallback where hard links are
	// unsupported, after a last existence check.
	if err := os.Link(tmp, abs); err != nil {
		if os.IsExist(err) {
			return errors.Newf(errors.ErrInvalidInput, "config file already exists: %s", abs).WithDetail("path", abs)
		}
		if _, statErr := os.Lstat(abs); statErr == nil {
			return errors.Newf(errors.ErrInvalidInput, "config file already exists: %s", abs).WithDetail("path", abs)
		}
		if err := os.Rename(tmp, abs); err != nil {
			return errors.WrapIO("publish config file", abs, err)
		}
	}
	_ = filesystem.SyncDir(dir)
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.WrapIO("create temp config", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return errors.WrapIO("write temp config", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return errors.WrapIO("sync temp config", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return errors.WrapIO("close temp config", path, err)
	}
	return nil
}
