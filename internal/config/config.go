// Package config loads the converter service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix keeps the historical MODULE_SEMS_CONVERTER_WORKSPACE name working.
const EnvPrefix = "MODULE_SEMS_CONVERTER"

type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`

	// Workspace is the directory of the filesystem content store.
	Workspace string `mapstructure:"workspace"`

	// Store selects the content store: fs or redis.
	Store string      `mapstructure:"store"`
	Redis RedisConfig `mapstructure:"redis"`

	// PostgresDSN enables conversion run history when set.
	PostgresDSN string `mapstructure:"postgres_dsn"`

	// DefinitionFormat is the encoding of the election definition: json or cbor.
	DefinitionFormat string `mapstructure:"definition_format"`

	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	Log LogConfig `mapstructure:"log"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs     []string       `mapstructure:"outputs"`
	Development bool           `mapstructure:"development"`
	Rotation    RotationConfig `mapstructure:"rotation"`
}

type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

func Default() *Config {
	return &Config{
		ListenAddr:       ":3003",
		Workspace:        "./election_files",
		Store:            "fs",
		Redis:            RedisConfig{Addr: "localhost:6379", KeyPrefix: "sems-converter:"},
		DefinitionFormat: "json",
		MaxUploadBytes:   32 << 20,
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stdout"},
			Rotation: RotationConfig{
				Filename:   "logs/sems-converter.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// Load reads configuration from path (or MODULE_SEMS_CONVERTER_CONFIG) when
// given, then applies environment overrides. Keys map to variables with the
// MODULE_SEMS_CONVERTER_ prefix and `.` replaced by `_`, e.g.
// MODULE_SEMS_CONVERTER_REDIS_ADDR.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", cfg.ListenAddr)
	v.SetDefault("workspace", cfg.Workspace)
	v.SetDefault("store", cfg.Store)
	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.key_prefix", cfg.Redis.KeyPrefix)
	v.SetDefault("postgres_dsn", cfg.PostgresDSN)
	v.SetDefault("definition_format", cfg.DefinitionFormat)
	v.SetDefault("max_upload_bytes", cfg.MaxUploadBytes)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}

	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case "fs":
		if strings.TrimSpace(c.Workspace) == "" {
			return errors.New("workspace is required for the fs store")
		}
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return errors.New("redis.addr is required for the redis store")
		}
	default:
		return fmt.Errorf("invalid store: %q", c.Store)
	}

	switch strings.ToLower(c.DefinitionFormat) {
	case "json", "cbor":
	default:
		return fmt.Errorf("invalid definition_format: %q", c.DefinitionFormat)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}
