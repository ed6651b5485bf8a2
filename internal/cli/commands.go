package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/arthur-debert/ariamove/internal/version"
	"github.com/arthur-debert/ariamove/pkg/config"
	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/logging"
	"github.com/arthur-debert/ariamove/pkg/paths"
	"github.com/arthur-debert/ariamove/pkg/reconcile"
	"github.com/arthur-debert/ariamove/pkg/relocate"
	"github.com/arthur-debert/ariamove/pkg/resolve"
	"github.com/arthur-debert/ariamove/pkg/ui"
	"github.com/arthur-debert/ariamove/pkg/ui/display"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// options collects every flag. Only flags the user actually set become
// config overrides.
type options struct {
	verbosity       int
	json            bool
	configFile      string
	logLevel        string
	dryRun          bool
	stagingRoot     string
	destinationRoot string
	disableLocks    bool

	sourcePath          string
	preserveMetadata    bool
	preservePermissions bool
	onDuplicate         string
	verify              bool
	workers             int
	noReconcile         bool

	renderer     ui.Renderer
	loggingReady bool
}

// overrides maps changed flags onto config keys
func (o *options) overrides(cmd *cobra.Command) map[string]interface{} {
	flags := cmd.Flags()
	out := make(map[string]interface{})
	set := func(flag, key string, value interface{}) {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			out[key] = value
		}
	}
	set("staging-root", "staging_root", o.stagingRoot)
	set("destination-root", "destination_root", o.destinationRoot)
	set("dry-run", "dry_run", o.dryRun)
	set("disable-locks", "locks_enabled", !o.disableLocks)
	set("log-level", "log_level", o.logLevel)
	set("preserve-metadata", "preserve_metadata", o.preserveMetadata)
	set("preserve-permissions", "preserve_permissions", o.preservePermissions)
	set("on-duplicate", "on_duplicate", o.onDuplicate)
	set("verify", "verify", o.verify)
	set("workers", "workers", o.workers)
	set("no-reconcile", "reconcile_on_start", !o.noReconcile)
	return out
}

// load builds and validates the configuration, then reconfigures logging
// with its log_file and log_level.
func (o *options) load(cmd *cobra.Command, validate bool) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{File: o.configFile, Overrides: o.overrides(cmd)})
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if o.verbosity > 0 && !cmd.Flags().Changed("log-level") {
		level = ""
	}
	logging.SetupLogger(o.verbosity, logging.Options{JSON: o.json, LogFile: cfg.LogFile, Level: level, Console: cmd.ErrOrStderr()})
	if cfg.Source != "" {
		log.Debug().Str("file", cfg.Source).Msg("configuration loaded")
	}

	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// output returns the renderer for results, creating it on first use
func (o *options) output(cmd *cobra.Command) (ui.Renderer, error) {
	if o.renderer != nil {
		return o.renderer, nil
	}
	r, err := ui.NewRenderer(ui.ModeFor(o.json, cmd.OutOrStdout()), cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	o.renderer = r
	return r, nil
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *options) {
	initTemplateFormatting()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "ariamove [task-id] [num-files] [source-path]",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgRootExample,
		Version: version.Get().String(),
		Args:    cobra.MaximumNArgs(3),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Console-only until the config names a log file.
			logging.SetupLogger(opts.verbosity, logging.Options{
				JSON:    opts.json,
				LogFile: "-",
				Level:   opts.logLevel,
				Console: cmd.ErrOrStderr(),
			})
			opts.loggingReady = true
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(cmd, opts, args)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	pf.BoolVar(&opts.json, "json", false, MsgFlagJSON)
	pf.StringVar(&opts.configFile, "config", "", MsgFlagConfig)
	pf.StringVar(&opts.logLevel, "log-level", "", MsgFlagLogLevel)
	pf.BoolVar(&opts.dryRun, "dry-run", false, MsgFlagDryRun)
	pf.StringVar(&opts.stagingRoot, "staging-root", "", MsgFlagStagingRoot)
	pf.StringVar(&opts.destinationRoot, "destination-root", "", MsgFlagDestinationRoot)
	pf.BoolVar(&opts.disableLocks, "disable-locks", false, MsgFlagDisableLocks)

	// Move flags
	f := rootCmd.Flags()
	f.StringVarP(&opts.sourcePath, "source-path", "s", "", MsgFlagSourcePath)
	f.BoolVar(&opts.preserveMetadata, "preserve-metadata", false, MsgFlagPreserveMeta)
	f.BoolVar(&opts.preservePermissions, "preserve-permissions", false, MsgFlagPreservePerms)
	f.StringVar(&opts.onDuplicate, "on-duplicate", "rename", MsgFlagOnDuplicate)
	f.BoolVar(&opts.verify, "verify", false, MsgFlagVerify)
	f.IntVar(&opts.workers, "workers", 0, MsgFlagWorkers)
	f.BoolVar(&opts.noReconcile, "no-reconcile", false, MsgFlagNoReconcile)
	_ = rootCmd.RegisterFlagCompletionFunc("on-duplicate", cobra.FixedCompletions(
		[]string{"rename", "skip", "overwrite"}, cobra.ShellCompDirectiveNoFileComp))

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newReconcileCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd, opts
}

// Execute runs the command line and returns the process exit code. Errors
// are rendered to stderr in the selected output format.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd, opts := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if opts.loggingReady {
		log.Error().Err(err).
			Str("code", string(errors.GetErrorCode(err))).
			Fields(errors.GetErrorDetails(err)).
			Msg("command failed")
	}

	renderer, rerr := ui.NewRenderer(ui.ModeFor(opts.json, stderr), stderr)
	if rerr == nil {
		_ = renderer.RenderError(err)
	} else {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return errors.ExitCode(err)
}

func runMove(cmd *cobra.Command, opts *options, args []string) error {
	ctx, stop := withSignals(cmd.Context())
	defer stop()

	cfg, err := opts.load(cmd, true)
	if err != nil {
		return err
	}
	out, err := opts.output(cmd)
	if err != nil {
		return err
	}
	logger := logging.GetLogger("cli.move")

	explicit := opts.sourcePath
	if len(args) > 0 {
		logger.Debug().Str("task", args[0]).Msg("aria2 task")
	}
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err != nil {
			logger.Warn().Str("value", args[1]).Msg(MsgIgnoredNumFiles)
		} else {
			logger.Debug().Int("files", n).Msg("aria2 file count")
		}
	}
	if explicit == "" && len(args) > 2 {
		explicit = args[2]
	}

	req := cfg.Request()
	result := &display.MoveResult{DryRun: cfg.DryRun}

	if cfg.ReconcileOnStart {
		report, err := reconcile.Run(ctx, req)
		switch {
		case errors.IsErrorCode(err, errors.ErrInterrupted):
			return err
		case err != nil:
			logger.Warn().Err(err).Msg("startup reconciliation failed; continuing")
		case !report.Empty():
			result.Reconciled = reconcileResult(report, cfg.DryRun)
		}
	}

	src, err := resolve.SourcePath(ctx, req, explicit)
	if err != nil {
		return err
	}

	engine := relocate.New(req, relocate.Options{Logger: logging.GetLogger("relocate")})
	outcome, err := engine.Move(ctx, src)
	if err != nil {
		return err
	}

	result.Source = src
	result.Destination = outcome.Dest
	result.Action = outcome.Kind.String()
	logger.Info().Str("source", src).Str("dest", outcome.Dest).Str("action", result.Action).Msg("move completed")
	return out.RenderResult(result)
}

func reconcileResult(r reconcile.Report, dryRun bool) *display.ReconcileResult {
	return &display.ReconcileResult{
		Artifacts:   r.Artifacts,
		PartialDirs: r.PartialDirs,
		Contended:   r.Contended,
		DryRun:      dryRun,
	}
}

func newReconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: MsgReconcileShort,
		Long:  MsgReconcileLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := withSignals(cmd.Context())
			defer stop()

			cfg, err := opts.load(cmd, true)
			if err != nil {
				return err
			}
			out, err := opts.output(cmd)
			if err != nil {
				return err
			}

			report, err := reconcile.Run(ctx, cfg.Request())
			if err != nil {
				return err
			}
			return out.RenderResult(reconcileResult(report, cfg.DryRun))
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: MsgConfigShort,
	}

	var format string
	printCmd := &cobra.Command{
		Use:   "print",
		Short: MsgConfigPrint,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, false)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal(format)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if cfg.Source != "" {
				_, _ = fmt.Fprintf(w, "# source: %s\n", cfg.Source)
			}
			_, err = w.Write(data)
			return err
		},
	}
	printCmd.Flags().StringVarP(&format, "format", "f", "toml", MsgFlagFormat)

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: MsgConfigPath,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := opts.output(cmd)
			if err != nil {
				return err
			}
			if env := os.Getenv(paths.EnvConfig); env != "" {
				return out.RenderMessage(fmt.Sprintf(MsgConfigEnvPath, paths.ExpandHome(env)))
			}
			path := paths.ConfigFile()
			if err := out.RenderMessage(fmt.Sprintf(MsgConfigDefault, path)); err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				return out.RenderMessage(MsgConfigExists)
			}
			legacy := filepath.Join(filepath.Dir(path), config.LegacyConfigFileName)
			if _, err := os.Stat(legacy); err == nil {
				return out.RenderMessage(fmt.Sprintf(MsgConfigLegacy, legacy))
			}
			return out.RenderMessage(MsgConfigMissing)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: MsgConfigInitShort,
		Long:  MsgConfigInitLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := paths.ConfigFile()
			if len(args) == 1 {
				path = paths.ExpandHome(args[0])
			}
			if err := config.WriteTemplate(path); err != nil {
				return err
			}
			out, err := opts.output(cmd)
			if err != nil {
				return err
			}
			return out.RenderMessage(fmt.Sprintf(MsgConfigWritten, path))
		},
	}

	cmd.AddCommand(printCmd, pathCmd, initCmd)
	return cmd
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if opts.json {
				out, err := opts.output(cmd)
				if err != nil {
					return err
				}
				return out.RenderResult(info)
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "ariamove version %s\n", info.Version)
			_, _ = fmt.Fprintf(w, "  commit: %s\n", info.Commit)
			_, _ = fmt.Fprintf(w, "  built:  %s\n", info.Date)
			_, err := fmt.Fprintf(w, "  go:     %s %s\n", info.GoVersion, info.Platform)
			return err
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: MsgCompletionShort,
		Long: `To load completions:

Bash:
  $ source <(ariamove completion bash)

Zsh:
  $ ariamove completion zsh > "${fpath[1]}/_ariamove"

Fish:
  $ ariamove completion fish | source

PowerShell:
  PS> ariamove completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}
