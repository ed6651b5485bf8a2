package cli

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	MsgRootShort       = "Move completed downloads safely out of the staging directory"
	MsgReconcileShort  = "Clean up leftovers of interrupted moves"
	MsgConfigShort     = "Inspect or create the configuration"
	MsgConfigPrint     = "Print the effective configuration"
	MsgConfigPath      = "Print the config file location"
	MsgConfigInitShort = "Write a commented config template"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgConfigWritten   = "Config template written to %s"
	MsgConfigEnvPath   = "Using ARIAMOVE_CONFIG: %s"
	MsgConfigDefault   = "Default config path: %s"
	MsgConfigExists    = "A config file exists at that location."
	MsgConfigMissing   = "No config file there yet; run `ariamove config init` to create one."
	MsgConfigLegacy    = "Legacy XML config in use: %s"
	MsgIgnoredNumFiles = "ignoring non-numeric num-files argument"

	// Flag descriptions
	MsgFlagVerbose         = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagJSON            = "Write results and logs as JSON"
	MsgFlagConfig          = "Config file (default $XDG_CONFIG_HOME/ariamove/config.toml)"
	MsgFlagLogLevel        = "Log level: trace, debug, info, warn, error (overrides -v)"
	MsgFlagDryRun          = "Show what would be done without changing anything"
	MsgFlagStagingRoot     = "Directory downloads land in"
	MsgFlagDestinationRoot = "Directory completed entries are moved to"
	MsgFlagDisableLocks    = "Do not take directory locks"
	MsgFlagSourcePath      = "Entry to move (overrides the positional source path)"
	MsgFlagPreserveMeta    = "Preserve mode bits, timestamps and extended attributes"
	MsgFlagPreservePerms   = "Preserve mode bits only"
	MsgFlagOnDuplicate     = "When the destination exists: rename, skip or overwrite"
	MsgFlagVerify          = "Compare SHA-256 checksums after copying"
	MsgFlagWorkers         = "Concurrent file copies for directory moves (0 = CPUs)"
	MsgFlagNoReconcile     = "Skip the startup cleanup of interrupted moves"
	MsgFlagFormat          = "Output format: toml or yaml"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/root-example.txt
	msgRootExampleRaw string
	MsgRootExample    = strings.TrimRight(msgRootExampleRaw, "\n")

	//go:embed msgs/reconcile-long.txt
	msgReconcileLongRaw string
	MsgReconcileLong    = strings.TrimSpace(msgReconcileLongRaw)

	//go:embed msgs/config-init-long.txt
	msgConfigInitLongRaw string
	MsgConfigInitLong    = strings.TrimSpace(msgConfigInitLongRaw)
)

// MsgUsageTemplate is cobra's default usage template with styled headings
const MsgUsageTemplate = `{{boldUpper "Usage"}}:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

{{boldUpper "Aliases"}}:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

{{boldUpper "Examples"}}:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

{{boldUpper "Commands"}}:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

{{boldUpper "Flags"}}:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

{{boldUpper "Global Flags"}}:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
