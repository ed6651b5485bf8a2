package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/logging"
	"github.com/arthur-debert/ariamove/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "ARIAMOVE_"

// LegacyConfigFileName is the XML config file name of earlier releases,
// read when no config.toml exists next to it.
const LegacyConfigFileName = "config.xml"

// LoadOptions selects the sources beyond the embedded defaults
type LoadOptions struct {
	// File is an explicit config file. A missing explicit file is an error;
	// when empty the default location is used if it exists.
	File string

	// Overrides are applied last, keyed by koanf path (e.g.
	// "stability.interval"). Command-line flags end up here.
	Overrides map[string]interface{}
}

// Load builds the configuration from all layers. The result is not yet
// validated.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. Config file
	path, explicit := opts.File, opts.File != ""
	if !explicit {
		path, explicit = defaultConfigFile()
	}
	source := ""
	if path != "" {
		loaded, err := loadFile(k, paths.ExpandHome(path), explicit)
		if err != nil {
			return nil, err
		}
		if loaded {
			source = paths.ExpandHome(path)
			logger.Debug().Str("file", source).Msg("loaded config file")
		}
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
	}
	// ARIAMOVE_CONFIG names the file, it is not a setting.
	k.Delete("config")

	// 4. Command-line overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	cfg.Source = source
	return cfg, nil
}

// Default returns the embedded defaults alone.
func Default() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}
	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal configuration")
	}
	return &cfg, nil
}

// defaultConfigFile returns the config file to read when none was given on
// the command line. ARIAMOVE_CONFIG counts as explicit.
func defaultConfigFile() (string, bool) {
	if os.Getenv(paths.EnvConfig) != "" {
		return paths.ConfigFile(), true
	}
	path := paths.ConfigFile()
	if _, err := os.Stat(path); err == nil {
		return path, false
	}
	legacy := filepath.Join(filepath.Dir(path), LegacyConfigFileName)
	if _, err := os.Stat(legacy); err == nil {
		return legacy, false
	}
	return path, false
}

// loadFile merges path into k using the parser its extension selects. It
// reports whether a file was read.
func loadFile(k *koanf.Koanf, path string, explicit bool) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not readable", path).WithDetail("path", path)
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = k.Load(file.Provider(path), toml.Parser())
	case ".yaml", ".yml":
		err = k.Load(file.Provider(path), yaml.Parser())
	case ".xml":
		var values map[string]interface{}
		values, err = readLegacyXML(path)
		if err == nil {
			err = k.Load(confmap.Provider(values, "."), nil)
		}
	default:
		return false, errors.Newf(errors.ErrConfigLoad, "unsupported config file format: %s", path).WithDetail("path", path)
	}
	if err != nil {
		if typed, ok := err.(*errors.Error); ok {
			return false, typed
		}
		return false, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path).WithDetail("path", path)
	}
	return true, nil
}
