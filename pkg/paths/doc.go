// Package paths provides default path discovery for ariamove.
//
// It follows the XDG Base Directory specification through adrg/xdg, so the
// defaults land in the platform-appropriate place on Linux, macOS and
// Windows.
//
// # Environment Variables
//
//   - ARIAMOVE_CONFIG: explicit config file path (default: $XDG_CONFIG_HOME/ariamove/config.toml)
//   - XDG_CONFIG_HOME: base for the config directory
//   - XDG_STATE_HOME: base for the log file ($XDG_STATE_HOME/ariamove/ariamove.log)
//
// A leading "~/" in any configured path is expanded to the user's home.
package paths
