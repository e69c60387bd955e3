// Package config loads lircctl configuration from a YAML file, LIRC_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"libdb.so/lirc"
)

// Config is the top-level configuration.
type Config struct {
	Network      string        `mapstructure:"network" yaml:"network"`
	Address      string        `mapstructure:"address" yaml:"address"`
	ReplyTimeout time.Duration `mapstructure:"reply_timeout" yaml:"reply_timeout"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
	Bridge       BridgeConfig  `mapstructure:"bridge" yaml:"bridge"`
}

// BridgeConfig configures the NATS/Redis bridge.
type BridgeConfig struct {
	NATSURL       string        `mapstructure:"nats_url" yaml:"nats_url"`
	SubjectPrefix string        `mapstructure:"subject_prefix" yaml:"subject_prefix"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	ShadowTTL     time.Duration `mapstructure:"shadow_ttl" yaml:"shadow_ttl"`
}

// EnvPrefix is prepended to environment variable names, e.g. LIRC_ADDRESS.
const EnvPrefix = "LIRC"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Network:      "unix",
		Address:      "/run/lirc/lircd",
		ReplyTimeout: lirc.DefaultReplyTimeout,
		LogLevel:     "info",
		Bridge: BridgeConfig{
			NATSURL:       "nats://localhost:4222",
			SubjectPrefix: "lirc",
			ShadowTTL:     24 * time.Hour,
		},
	}
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"network":       "network",
	"address":       "address",
	"reply-timeout": "reply_timeout",
	"log-level":     "log_level",
}

// Load reads configuration from path, the environment and flags, in
// increasing order of precedence. An empty path skips the file. flags may be
// nil; only the flags listed in flagKeys are used.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", cfg.Network)
	v.SetDefault("address", cfg.Address)
	v.SetDefault("reply_timeout", cfg.ReplyTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("bridge.nats_url", cfg.Bridge.NATSURL)
	v.SetDefault("bridge.subject_prefix", cfg.Bridge.SubjectPrefix)
	v.SetDefault("bridge.redis_addr", cfg.Bridge.RedisAddr)
	v.SetDefault("bridge.redis_db", cfg.Bridge.RedisDB)
	v.SetDefault("bridge.shadow_ttl", cfg.Bridge.ShadowTTL)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("cannot bind flag --%s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("cannot read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("cannot decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for values lircctl cannot work with.
func (c Config) Validate() error {
	var errs []error

	switch c.Network {
	case "unix", "tcp":
	default:
		errs = append(errs, fmt.Errorf("unsupported network %q, expected unix or tcp", c.Network))
	}
	if c.Address == "" {
		errs = append(errs, errors.New("address is required"))
	}
	if c.ReplyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("reply_timeout must be positive, got %s", c.ReplyTimeout))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Bridge.SubjectPrefix == "" {
		errs = append(errs, errors.New("bridge.subject_prefix is required"))
	}
	if c.Bridge.ShadowTTL < 0 {
		errs = append(errs, fmt.Errorf("bridge.shadow_ttl must not be negative, got %s", c.Bridge.ShadowTTL))
	}

	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Connection creates an lircd connection from the configuration.
func (c Config) Connection() *lirc.Connection {
	var conn *lirc.Connection
	if c.Network == "tcp" {
		conn = lirc.NewTCP(c.Address)
	} else {
		conn = lirc.NewUnix(c.Address)
	}
	conn.ReplyTimeout = c.ReplyTimeout
	return conn
}

// YAML renders the configuration as a YAML document.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
