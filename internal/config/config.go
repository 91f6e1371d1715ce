package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// key segments: RESPACER_SYNC__DEBOUNCE sets sync.debounce.
const EnvPrefix = "RESPACER_"

const appName = "respacer"

// Config is the complete respacer configuration.
type Config struct {
	Settings SettingsConfig `koanf:"settings"`
	Sync     SyncConfig     `koanf:"sync"`
	Watcher  WatcherConfig  `koanf:"watcher"`
	Host     HostConfig     `koanf:"host"`
	Log      LogConfig      `koanf:"log"`
}

// SettingsConfig locates the settings documents.
type SettingsConfig struct {
	// FileName is the document name, both globally and in projects.
	FileName string `koanf:"file_name"`
	// GlobalDir holds the per-user document.
	GlobalDir string `koanf:"global_dir"`
	// LockDir holds write lock files. Empty disables locking.
	LockDir string `koanf:"lock_dir"`
	// LockTimeout bounds waiting for another writer.
	LockTimeout time.Duration `koanf:"lock_timeout"`
}

// SyncConfig holds the event shaping windows.
type SyncConfig struct {
	Debounce time.Duration `koanf:"debounce"`
	Throttle time.Duration `koanf:"throttle"`
}

// WatcherConfig tunes the file watcher.
type WatcherConfig struct {
	RetryInterval time.Duration `koanf:"retry_interval"`
	BufferSize    int           `koanf:"buffer_size"`
}

// HostConfig configures the built-in host.
type HostConfig struct {
	// Registry is the TOML file holding the live editor settings.
	Registry string `koanf:"registry"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int    `koanf:"verbosity"`
	File      string `koanf:"file"`
}

// DefaultPath returns $XDG_CONFIG_HOME/respacer/respacer.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, appName+".toml")
}

func defaults() map[string]any {
	return map[string]any{
		"settings.file_name":     "text.settings.json",
		"settings.global_dir":    filepath.Join(xdg.ConfigHome, appName),
		"settings.lock_dir":      filepath.Join(xdg.StateHome, appName, "locks"),
		"settings.lock_timeout":  "2s",
		"sync.debounce":          "300ms",
		"sync.throttle":          "500ms",
		"watcher.retry_interval": "1s",
		"watcher.buffer_size":    100,
		"host.registry":          filepath.Join(xdg.DataHome, appName, "registry.toml"),
		"log.verbosity":          0,
		"log.file":               "",
	}
}

// Load builds the configuration. An empty path reads DefaultPath if it
// exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	var errs []error
	if c.Settings.FileName == "" || strings.ContainsAny(c.Settings.FileName, `/\`) {
		errs = append(errs, fmt.Errorf("settings.file_name must be a plain file name, got %q", c.Settings.FileName))
	}
	if c.Settings.GlobalDir == "" {
		errs = append(errs, errors.New("settings.global_dir is required"))
	}
	if c.Sync.Debounce <= 0 {
		errs = append(errs, errors.New("sync.debounce must be positive"))
	}
	if c.Sync.Throttle <= 0 {
		errs = append(errs, errors.New("sync.throttle must be positive"))
	}
	if c.Watcher.RetryInterval <= 0 {
		errs = append(errs, errors.New("watcher.retry_interval must be positive"))
	}
	if c.Watcher.BufferSize <= 0 {
		errs = append(errs, errors.New("watcher.buffer_size must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
