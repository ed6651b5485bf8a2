// Package config loads ariamove's configuration.
//
// Sources are layered, later ones winning: the embedded defaults, the user
// config file (TOML, YAML, or the legacy XML format), ARIAMOVE_*
// environment variables and finally command-line overrides. Validate
// normalizes the roots and checks them before the engine sees them.
package config
