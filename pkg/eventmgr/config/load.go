package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultEnvPrefix is the environment variable prefix. Underscores after
// the prefix map to dots:
//
//	EVENTMGR_MANAGER_TIMEOUT -> manager.timeout
//	EVENTMGR_LOG_LEVEL       -> log.level
const DefaultEnvPrefix = "EVENTMGR_"

// DefaultFlagKeys maps command-line flag names to configuration keys.
var DefaultFlagKeys = map[string]string{
	"token":      "token",
	"timeout":    "manager.timeout",
	"workers":    "manager.workers",
	"journal":    "journal.path",
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
}

// LoadOptions selects the configuration layers. Later layers override
// earlier ones: defaults, file, environment, flags.
type LoadOptions struct {
	// Path is a YAML or JSON file, chosen by extension. Empty skips the
	// file layer.
	Path string
	// EnvPrefix defaults to DefaultEnvPrefix.
	EnvPrefix string
	// Flags are applied only when changed on the command line.
	Flags *pflag.FlagSet
	// FlagKeys defaults to DefaultFlagKeys. Unlisted flags are ignored.
	FlagKeys map[string]string
}

// LoadConfig merges every layer into a flat Config.
func LoadConfig(opts LoadOptions) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if opts.Path != "" {
		parser, err := parserFor(opts.Path)
		if err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", opts.Path, err)
		}
		if err := k.Load(file.Provider(opts.Path), parser); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", opts.Path, err)
		}
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	if err := k.Load(env.Provider(prefix, ".", func(key string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, prefix)), "_", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if opts.Flags != nil {
		keys := opts.FlagKeys
		if keys == nil {
			keys = DefaultFlagKeys
		}
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := keys[f.Name]
			if !ok {
				return "", nil
			}
			return key, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	return New(k.All()), nil
}

// Load merges every layer and decodes the result into validated Settings.
func Load(opts LoadOptions) (Settings, error) {
	c, err := LoadConfig(opts)
	if err != nil {
		return Settings{}, err
	}
	s := SettingsFrom(c)
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}
