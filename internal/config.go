package internal

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

const EnvDataDirectory = "DATA_DIRECTORY"

type MikeDBConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		DataDirectory string `mapstructure:"data_directory"`
		PageSize      int64  `mapstructure:"page_size"`
	} `mapstructure:"storage"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// LoadConfig reads the YAML file at path when path is not empty. Defaults
// apply to anything missing and DATA_DIRECTORY overrides the storage root.
func LoadConfig(path string) (*MikeDBConfig, error) {
	v := viper.New()
	v.SetDefault("app_name", "mikedb")
	v.SetDefault("storage.data_directory", "data")
	v.SetDefault("storage.page_size", 8192)
	v.SetDefault("log.level", "info")

	if err := v.BindEnv("storage.data_directory", EnvDataDirectory); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg MikeDBConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Storage.PageSize <= 0 {
		return nil, fmt.Errorf("invalid storage.page_size: %d", cfg.Storage.PageSize)
	}

	return &cfg, nil
}

// SlogLevel maps log.level to a slog level, defaulting to info.
func (c *MikeDBConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
