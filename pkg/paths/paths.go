package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvConfig points at an explicit config file
	EnvConfig = "ARIAMOVE_CONFIG"

	// EnvXDGConfigHome and EnvXDGStateHome are read directly so overrides
	// made after process start are honoured
	EnvXDGConfigHome = "XDG_CONFIG_HOME"
	EnvXDGStateHome  = "XDG_STATE_HOME"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

const (
	// AppDirName is the directory name used under each XDG base
	AppDirName = "ariamove"

	// ConfigFileName is the default config file name
	ConfigFileName = "config.toml"

	// LogFileName is the name of the log file
	LogFileName = "ariamove.log"
)

// ConfigDir returns the directory holding the default config file.
func ConfigDir() string {
	if dir := os.Getenv(EnvXDGConfigHome); dir != "" {
		return filepath.Join(ExpandHome(dir), AppDirName)
	}
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// ConfigFile returns the config file path, honouring ARIAMOVE_CONFIG.
func ConfigFile() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return ExpandHome(p)
	}
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// StateDir returns the per-user state directory for ariamove.
func StateDir() string {
	if dir := os.Getenv(EnvXDGStateHome); dir != "" {
		return filepath.Join(ExpandHome(dir), AppDirName)
	}
	return filepath.Join(xdg.StateHome, AppDirName)
}

// LogFile returns the default log file path.
func LogFile() string {
	return filepath.Join(StateDir(), LogFileName)
}

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to HOME env var
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}

	// Handle both ~/ and ~
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~something (not the user's home)
	return path
}
