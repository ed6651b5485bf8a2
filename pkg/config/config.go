package config

import (
	"time"

	"github.com/arthur-debert/ariamove/pkg/metadata"
	"github.com/arthur-debert/ariamove/pkg/naming"
	"github.com/arthur-debert/ariamove/pkg/relocate"
)

// Config is the complete ariamove configuration
type Config struct {
	StagingRoot     string        `koanf:"staging_root"`
	DestinationRoot string        `koanf:"destination_root"`
	RecencyWindow   time.Duration `koanf:"recency_window"`

	DryRun              bool `koanf:"dry_run"`
	PreserveMetadata    bool `koanf:"preserve_metadata"`
	PreservePermissions bool `koanf:"preserve_permissions"`
	LocksEnabled        bool `koanf:"locks_enabled"`

	OnDuplicate naming.Policy `koanf:"on_duplicate"`
	Workers     int           `koanf:"workers"`
	Verify      bool          `koanf:"verify"`

	ReconcileOnStart  bool `koanf:"reconcile_on_start"`
	StrictPermissions bool `koanf:"strict_permissions"`

	Stability Stability `koanf:"stability"`

	LogFile  string `koanf:"log_file"`
	LogLevel string `koanf:"log_level"`

	// Source is the config file that was loaded, empty when only defaults,
	// environment and flags contributed.
	Source string `koanf:"-"`
}

// Stability holds write-in-progress detection settings
type Stability struct {
	Interval time.Duration `koanf:"interval"`
	Attempts int           `koanf:"attempts"`
}

// Metadata returns the metadata preservation options. Permissions alone is
// subsumed when full preservation is on.
func (c *Config) Metadata() metadata.Options {
	return metadata.Options{
		Full:        c.PreserveMetadata,
		Permissions: c.PreservePermissions && !c.PreserveMetadata,
	}
}

// Request converts the configuration into an engine request.
func (c *Config) Request() relocate.Request {
	md := c.Metadata()
	return relocate.Request{
		StagingRoot:         c.StagingRoot,
		DestinationRoot:     c.DestinationRoot,
		DryRun:              c.DryRun,
		PreserveMetadata:    md.Full,
		PreservePermissions: md.Permissions,
		LocksEnabled:        c.LocksEnabled,
		OnDuplicate:         c.OnDuplicate,
		Workers:             c.Workers,
		StabilityInterval:   c.Stability.Interval,
		StabilityAttempts:   c.Stability.Attempts,
		RecencyWindow:       c.RecencyWindow,
		Verify:              c.Verify,
	}
}
