package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	customerrors "github.com/axellelanca/pitico/internal/errors"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config represents the main structure mapping the entire application configuration.
// This struct uses mapstructure tags to map YAML keys to Go struct fields.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server struct {
		Port    int    `mapstructure:"port"`     // HTTP server port (default: 8080)
		BaseURL string `mapstructure:"base_url"` // Base URL printed in front of aliases by the CLI
	} `mapstructure:"server"`

	// Storage selects the backing store
	Storage struct {
		Driver string `mapstructure:"driver"` // "sqlite" or "redis"
	} `mapstructure:"storage"`

	// Database configuration section for SQLite settings
	Database struct {
		Name string `mapstructure:"name"` // SQLite database file name
	} `mapstructure:"database"`

	// Redis configuration, used when storage.driver is "redis"
	Redis struct {
		Addr      string `mapstructure:"addr"`
		Password  string `mapstructure:"password"`
		DB        int    `mapstructure:"db"`
		KeyPrefix string `mapstructure:"key_prefix"`
	} `mapstructure:"redis"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	// Monitor configuration for the reachability check of stored URLs
	Monitor struct {
		TimeoutSeconds int `mapstructure:"timeout_seconds"` // Per-URL request timeout
		Concurrency    int `mapstructure:"concurrency"`     // Number of URLs probed in parallel
	} `mapstructure:"monitor"`
}

// LoadConfig loads the application configuration using Viper.
// Environment variables override the YAML file, e.g. SERVER_PORT for server.port.
// When configFile is empty, ./configs/config.yaml is used if present.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("./configs")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("database.name", "pitico.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "pitico")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("monitor.timeout_seconds", 5)
	v.SetDefault("monitor.concurrency", 4)

	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine, defaults apply. An explicit file must exist.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, customerrors.ErrConfigLoad{Path: configPath(v, configFile), Reason: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required for the %s driver", DriverSQLite)
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the %s driver", DriverRedis)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	if c.Monitor.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid monitor.timeout_seconds %d", c.Monitor.TimeoutSeconds)
	}
	if c.Monitor.Concurrency <= 0 {
		return fmt.Errorf("invalid monitor.concurrency %d", c.Monitor.Concurrency)
	}
	return nil
}

func configPath(v *viper.Viper, configFile string) string {
	if configFile != "" {
		return configFile
	}
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	return "./configs/config.yaml"
}
