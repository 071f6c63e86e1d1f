package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "brewpkg"

	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"

	// EnvPrefix prefixes every environment override (BREWPKG_IDENTIFIER_PREFIX, ...).
	EnvPrefix = "BREWPKG"

	// DefaultIdentifierPrefix is used when no identifier prefix is configured.
	DefaultIdentifierPrefix = "org.homebrew"
)

// Settings holds the resolved brewpkg configuration.
type Settings struct {
	IdentifierPrefix string        `mapstructure:"identifier_prefix"`
	Prefix           string        `mapstructure:"prefix"`
	Cellar           string        `mapstructure:"cellar"`
	BrewPath         string        `mapstructure:"brew_path"`
	PkgbuildPath     string        `mapstructure:"pkgbuild_path"`
	Timeout          time.Duration `mapstructure:"timeout"`
	LogLevel         string        `mapstructure:"log_level"`
	Interpreters     []string      `mapstructure:"interpreters"`
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// ConfigFile, when set, is the only config file read. It must exist.
	ConfigFile string

	// ConfigDir overrides the directory searched for config.{toml,yaml,json}.
	ConfigDir string

	// Flags are bound last so explicitly set flags win over everything else.
	Flags *pflag.FlagSet
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	paths := DefaultPaths()
	return Settings{
		IdentifierPrefix: DefaultIdentifierPrefix,
		Prefix:           paths.Prefix,
		Cellar:           os.Getenv("HOMEBREW_CELLAR"),
		BrewPath:         "brew",
		PkgbuildPath:     "pkgbuild",
		LogLevel:         "info",
		Interpreters:     []string{"python"},
	}
}

// ConfigDir returns the brewpkg configuration directory
// ($XDG_CONFIG_HOME/brewpkg, defaulting to ~/.config/brewpkg).
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// flagKeys maps command-line flag names to settings keys.
var flagKeys = map[string]string{
	"identifier-prefix": "identifier_prefix",
	"prefix":            "prefix",
	"cellar":            "cellar",
	"timeout":           "timeout",
	"log-level":         "log_level",
}

// Load resolves Settings from defaults, config file, environment and flags.
func Load(opts LoadOptions) (*Settings, error) {
	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault("identifier_prefix", defaults.IdentifierPrefix)
	v.SetDefault("prefix", defaults.Prefix)
	v.SetDefault("cellar", defaults.Cellar)
	v.SetDefault("brew_path", defaults.BrewPath)
	v.SetDefault("pkgbuild_path", defaults.PkgbuildPath)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("interpreters", defaults.Interpreters)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		dir := opts.ConfigDir
		if dir == "" {
			var err error
			dir, err = ConfigDir()
			if err != nil {
				return nil, err
			}
		}
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			// No config file is fine; a broken one is not.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if opts.Flags != nil {
		for flagName, key := range flagKeys {
			if f := opts.Flags.Lookup(flagName); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", flagName, err)
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	s.IdentifierPrefix = NormalizeIdentifierPrefix(s.IdentifierPrefix)
	if s.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %s: must not be negative", s.Timeout)
	}
	return &s, nil
}

// NormalizeIdentifierPrefix trims a trailing "." and falls back to the default.
func NormalizeIdentifierPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		return DefaultIdentifierPrefix
	}
	return prefix
}

// Paths returns the Homebrew paths described by the settings.
func (s *Settings) Paths() Paths {
	prefix := s.Prefix
	if prefix == "" {
		prefix = DefaultPaths().Prefix
	}
	return NewPaths(prefix, s.Cellar)
}
