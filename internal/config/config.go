// Package config loads runtime settings from defaults, an optional YAML
// file, IMAGE_PREVIEW_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/image-preview/internal/watcher"
)

// Keys understood by Load.
const (
	KeyLogLevel      = "log.level"
	KeyLogFormat     = "log.format"
	KeyWatchDebounce = "watch.debounce"
	KeyWatchEnabled  = "watch.enabled"
)

// EnvPrefix is prepended to every environment override, so log.level is
// read from IMAGE_PREVIEW_LOG_LEVEL.
const EnvPrefix = "IMAGE_PREVIEW"

// configName is the file searched for in the home directory when no
// explicit file is given.
const configName = ".image-preview"

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":  KeyLogLevel,
	"log-format": KeyLogFormat,
	"debounce":   KeyWatchDebounce,
	"watch":      KeyWatchEnabled,
}

// Config holds the resolved settings.
type Config struct {
	LogLevel     string
	LogFormat    string
	Debounce     time.Duration
	WatchEnabled bool

	// File is the configuration file that was read, or "" if none.
	File string
}

// Load resolves the configuration. cfgFile names an explicit file that must
// exist; when empty, $HOME/.image-preview.yaml is used if present. Flags
// that were set on the command line override everything else; flags may be
// nil.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyWatchDebounce, watcher.DefaultDebounce)
	v.SetDefault(KeyWatchEnabled, true)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to find home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(configName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
		Debounce:     v.GetDuration(KeyWatchDebounce),
		WatchEnabled: v.GetBool(KeyWatchEnabled),
		File:         v.ConfigFileUsed(),
	}

	if cfg.Debounce < 0 {
		return Config{}, fmt.Errorf("invalid %s %v: must not be negative", KeyWatchDebounce, cfg.Debounce)
	}

	return cfg, nil
}
