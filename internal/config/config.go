// Package config loads settings for the vislevel binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Debug       bool          `mapstructure:"debug"`
	StrictClear bool          `mapstructure:"strict_clear"`
	Trace       TraceConfig   `mapstructure:"trace"`
	Inspect     InspectConfig `mapstructure:"inspect"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

// TraceConfig holds event recording and export settings.
type TraceConfig struct {
	Capacity     int    `mapstructure:"capacity"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

// InspectConfig holds the inspection server settings. An empty Addr
// disables the server.
type InspectConfig struct {
	Addr string `mapstructure:"addr"`
}

// MetricsConfig toggles the Prometheus hook.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from file and env. Env var overrides use prefix VISLEVEL_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("debug", false)
	v.SetDefault("strict_clear", false)
	v.SetDefault("trace.capacity", 256)
	v.SetDefault("trace.otlp_endpoint", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	v.SetDefault("trace.service_name", serviceNameDefault())
	v.SetDefault("inspect.addr", "")
	v.SetDefault("metrics.enabled", false)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("VISLEVEL_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "vislevel"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("VISLEVEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist and parse.
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Trace.Capacity <= 0 {
		return Config{}, fmt.Errorf("trace.capacity must be positive, got %d", c.Trace.Capacity)
	}
	return c, nil
}

func serviceNameDefault() string {
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	return "vislevel"
}
