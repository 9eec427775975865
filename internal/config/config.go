// Package config handles loading of probe settings via Viper. Every setting
// has a default, so pgprobe runs with no config file at all; a YAML file and
// PGPROBE_* environment variables override individual settings.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level probe configuration. Durations are kept as strings
// in the file and parsed on access so a malformed value degrades to the
// default instead of aborting the probe.
type Config struct {
	PingTimeout    string `mapstructure:"ping_timeout"`
	DialTimeout    string `mapstructure:"dial_timeout"`
	ConnectTimeout string `mapstructure:"connect_timeout"`
	ProbeTable     string `mapstructure:"probe_table"`
	SSLMode        string `mapstructure:"sslmode"`
	LogLevel       string `mapstructure:"log_level"`
}

// ParsedPingTimeout returns the ICMP wait as a time.Duration, defaulting to 5s.
func (c Config) ParsedPingTimeout() time.Duration {
	return parseDuration(c.PingTimeout, 5*time.Second)
}

// ParsedDialTimeout returns the TCP connect wait, defaulting to 5s.
func (c Config) ParsedDialTimeout() time.Duration {
	return parseDuration(c.DialTimeout, 5*time.Second)
}

// ParsedConnectTimeout returns the database connect wait, defaulting to 5s.
func (c Config) ParsedConnectTimeout() time.Duration {
	return parseDuration(c.ConnectTimeout, 5*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, _ := time.ParseDuration(s)
	if d <= 0 {
		return def
	}
	return d
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		PingTimeout:    "5s",
		DialTimeout:    "5s",
		ConnectTimeout: "5s",
		ProbeTable:     "login",
		SSLMode:        "disable",
		LogLevel:       "warn",
	}
}

// Load reads and parses the YAML file at path using Viper.
func Load(path string) (Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}
	return unmarshal(v)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("PGPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults — all overridable by pgprobe.yaml or environment.
	v.SetDefault("ping_timeout", "5s")
	v.SetDefault("dial_timeout", "5s")
	v.SetDefault("connect_timeout", "5s")
	v.SetDefault("probe_table", "login")
	v.SetDefault("sslmode", "disable")
	v.SetDefault("log_level", "warn")

	return v
}

func unmarshal(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing: %w", err)
	}
	if strings.TrimSpace(cfg.ProbeTable) == "" {
		return Config{}, fmt.Errorf("config: probe_table must not be empty")
	}
	return cfg, nil
}
