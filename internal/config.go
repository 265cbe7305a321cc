package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	OutputDebug = "debug"
	OutputJSON  = "json"
)

type Config struct {
	AppName string `mapstructure:"app_name"`

	Log struct {
		Level string `mapstructure:"level"`
		// Slog is Level resolved by LoadConfig.
		Slog slog.Level `mapstructure:"-"`
	} `mapstructure:"log"`

	Output struct {
		Format string `mapstructure:"format"`
	} `mapstructure:"output"`

	Repl struct {
		History    string `mapstructure:"history"`
		HistoryMax int    `mapstructure:"history_max"`
	} `mapstructure:"repl"`

	Server struct {
		Addr      string        `mapstructure:"addr"`
		CacheSize int           `mapstructure:"cache_size"`
		Timeout   time.Duration `mapstructure:"timeout"`
	} `mapstructure:"server"`
}

// LoadConfig reads the YAML file at path, if any, over the defaults.
// SQLCREATE_* environment variables override both (SQLCREATE_SERVER_ADDR).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SQLCREATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "sqlcreate")
	v.SetDefault("log.level", "warn")
	v.SetDefault("output.format", OutputDebug)
	v.SetDefault("repl.history", defaultHistoryPath())
	v.SetDefault("repl.history_max", 2000)
	v.SetDefault("server.addr", "127.0.0.1:8867")
	v.SetDefault("server.cache_size", 1024)
	v.SetDefault("server.timeout", 30*time.Second)
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".sqlcreate_history"
	}
	return filepath.Join(home, ".sqlcreate_history")
}

// validate checks the decoded values and resolves Log.Slog.
func (c *Config) validate() error {
	switch c.Output.Format {
	case OutputDebug, OutputJSON:
	default:
		return fmt.Errorf("config: output.format must be %q or %q, got %q", OutputDebug, OutputJSON, c.Output.Format)
	}
	if err := c.Log.Slog.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if c.Server.CacheSize < 0 {
		return fmt.Errorf("config: server.cache_size must be >= 0, got %d", c.Server.CacheSize)
	}
	return nil
}
