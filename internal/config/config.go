// Package config loads tdl settings from defaults, an optional YAML file, a .env
// file and TDL_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tgienger/tdl/internal/validation"
)

// EnvPrefix is prepended to every environment override, e.g. TDL_LOG_LEVEL
const EnvPrefix = "TDL"

// Config holds all configuration for the application
type Config struct {
	Data   DataConfig   `mapstructure:"data"`
	Log    LogConfig    `mapstructure:"log"`
	Update UpdateConfig `mapstructure:"update"`
	UI     UIConfig     `mapstructure:"ui"`

	v *viper.Viper
}

// DataConfig controls where and how often the task snapshot is written
type DataConfig struct {
	Dir          string        `mapstructure:"dir"`
	SaveDebounce time.Duration `mapstructure:"save_debounce" validate:"gte=0"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Output string `mapstructure:"output" validate:"oneof=file stderr"`
	File   string `mapstructure:"file"`
}

// UpdateConfig holds release feed settings
type UpdateConfig struct {
	FeedURL       string        `mapstructure:"feed_url" validate:"omitempty,url"`
	CheckOnStart  bool          `mapstructure:"check_on_start"`
	CheckInterval time.Duration `mapstructure:"check_interval" validate:"gte=0"`
}

// UIConfig holds terminal UI settings
type UIConfig struct {
	Theme string `mapstructure:"theme" validate:"oneof=tokyonight light"`
}

// Options select the files Load reads. Empty fields use the defaults.
type Options struct {
	File    string // explicit config file; must exist when set
	EnvFile string // .env file; missing is fine
}

// Load loads configuration from various sources
func Load(opts Options) (*Config, error) {
	// Load .env file if it exists (ignore errors)
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode(v)
}

// Default returns the built-in configuration, ignoring files and environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validation.New().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.v = v
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "")
	v.SetDefault("data.save_debounce", "250ms")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "file")
	v.SetDefault("log.file", "")

	v.SetDefault("update.feed_url", "")
	v.SetDefault("update.check_on_start", true)
	v.SetDefault("update.check_interval", "24h")

	v.SetDefault("ui.theme", "tokyonight")
}

// File returns the config file in use, or "" when running on defaults
func (c *Config) File() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// DBPath returns the database location; "" means the database default
func (c *Config) DBPath() string {
	if c.Data.Dir == "" {
		return ""
	}
	return filepath.Join(c.Data.Dir, "tdl.db")
}

// Watch calls fn with the reloaded configuration each time the config file
// changes. A reload that fails validation is reported through err and the
// previous configuration stays in effect. Without a config file Watch does nothing.
func (c *Config) Watch(fn func(cfg *Config, err error)) {
	if c.File() == "" {
		return
	}
	var mu sync.Mutex
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fn(decode(c.v))
	})
	c.v.WatchConfig()
}

// Dir returns $XDG_CONFIG_HOME/tdl, falling back to ~/.config/tdl
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "tdl"), nil
}
