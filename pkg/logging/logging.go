package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/ariamove/pkg/paths"
	"github.com/arthur-debert/ariamove/pkg/security"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options tunes SetupLogger beyond the verbosity count
type Options struct {
	// JSON writes raw JSON lines to the console instead of pretty output
	JSON bool

	// LogFile overrides the default log file location. "-" disables the file.
	LogFile string

	// Level, when set, overrides the level derived from verbosity
	Level string

	// Console replaces stderr as the console destination
	Console io.Writer
}

var logFileHandle *os.File

// SetupLogger configures the global logger based on verbosity level
// It sets up dual output to both console and a log file
func SetupLogger(verbosity int, opts Options) {
	zerolog.SetGlobalLevel(levelFor(verbosity, opts.Level))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var writers []io.Writer
	if opts.JSON {
		writers = append(writers, console)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.Kitchen,
		})
	}

	CloseLogFile()
	logFile := opts.LogFile
	if logFile == "" {
		logFile = paths.LogFile()
	}
	var fileErr error
	if logFile != "-" {
		logFileHandle, fileErr = setupLogFile(logFile)
		if fileErr == nil {
			writers = append(writers, logFileHandle)
		}
	}

	multi := io.MultiWriter(writers...)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()

	// If we couldn't create the log file, log the error now with the new logger
	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", logFile).Msg("File logging disabled, logging to console only")
	}

	// Add caller information for debug and trace levels
	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", verbosity).Str("logFile", logFile).Msg("Logger initialized")
}

// CloseLogFile closes the log file opened by SetupLogger, if any.
func CloseLogFile() {
	if logFileHandle != nil {
		_ = logFileHandle.Close()
		logFileHandle = nil
	}
}

func levelFor(verbosity int, override string) zerolog.Level {
	if override != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(override)); err == nil && lvl != zerolog.NoLevel {
			return lvl
		}
	}
	switch verbosity {
	case 0:
		return zerolog.WarnLevel
	case 1:
		return zerolog.InfoLevel
	case 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// WithFields returns a logger with additional fields
func WithFields(fields map[string]interface{}) zerolog.Logger {
	logger := log.Logger
	for k, v := range fields {
		logger = logger.With().Interface(k, v).Logger()
	}
	return logger
}

// setupLogFile opens the log file for appending with 0600 permissions,
// refusing paths that traverse or end in a symlink
func setupLogFile(logPath string) (*os.File, error) {
	logPath = paths.ExpandHome(logPath)

	hasLink, err := security.HasSymlinkAncestor(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect log path: %w", err)
	}
	if hasLink {
		return nil, fmt.Errorf("refusing log file %s: an ancestor is a symlink", logPath)
	}
	if info, err := os.Lstat(logPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("refusing log file %s: it is a symlink", logPath)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// LogDuration logs the duration of an operation
func LogDuration(start time.Time, operation string) {
	log.Debug().
		Str("operation", operation).
		Dur("duration", time.Since(start)).
		Msg("Operation completed")
}

// LogOperationStart logs the start of an operation and returns a function to log its completion
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().
		Str("operation", operation).
		Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
