// Package config loads and validates the daemon configuration. Values come
// from <NodeHome>/config/skysurety.yaml with SKYSURETY_* environment
// overrides; missing values fall back to programmatic defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/skysurety/skysurety-node/constant"
)

// Config is the full daemon configuration.
type Config struct {
	// Log config
	LogLevel   int    `mapstructure:"log_level"`   // zerolog level: -1 trace .. 5 panic
	LogFormat  string `mapstructure:"log_format"`  // "json" or "console"
	LogSampler bool   `mapstructure:"log_sampler"` // if true, samples logs (1 in 5)

	// Node config
	NodeHome string `mapstructure:"node_home"` // home directory (default: ~/.skysurety)

	// Ledger identities
	Owner                 string `mapstructure:"owner"`                   // owner identity; may flip the kill-switch and grant callers
	FirstAirline          string `mapstructure:"first_airline"`           // pre-registered at initialization
	OracleServiceIdentity string `mapstructure:"oracle_service_identity"` // identity the reconciler commits as

	// Stakes, in cents; zero means the compiled-in default
	MinAirlineStake int64 `mapstructure:"min_airline_stake"`
	OracleStake     int64 `mapstructure:"oracle_stake"`

	// Local oracle worker pool
	OracleWorkerCount int   `mapstructure:"oracle_worker_count"` // in-process workers the daemon runs
	OracleWorkerSeed  int64 `mapstructure:"oracle_worker_seed"`  // seed for the randomized status quoter

	// Trigger feed
	TriggerIntervalSeconds int `mapstructure:"trigger_interval_seconds"`

	// Query server
	QueryServerPort int `mapstructure:"query_server_port"`

	// Retention cleanup
	CleanupIntervalSeconds int `mapstructure:"cleanup_interval_seconds"`
	RetentionPeriodSeconds int `mapstructure:"retention_period_seconds"`
}

// Load reads the config for the given home directory. A missing config file
// is not an error; defaults and environment overrides still apply.
func Load(home string) (*Config, error) {
	v := viper.New()
	setDefaults(v, home)

	v.SetConfigName(strings.TrimSuffix(constant.ConfigFileName, filepath.Ext(constant.ConfigFileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(home, constant.ConfigSubdir))

	v.SetEnvPrefix("SKYSURETY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteDefault writes a fully populated default config file for the home
// directory, failing if one already exists.
func WriteDefault(home string) (string, error) {
	configDir := filepath.Join(home, constant.ConfigSubdir)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(configDir, constant.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	v := viper.New()
	setDefaults(v, home)
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("log_level", 1)
	v.SetDefault("log_format", "console")
	v.SetDefault("log_sampler", false)
	v.SetDefault("node_home", home)
	v.SetDefault("owner", "owner")
	v.SetDefault("first_airline", "airline-1")
	v.SetDefault("oracle_service_identity", "oracle-service")
	v.SetDefault("min_airline_stake", constant.MinAirlineStake)
	v.SetDefault("oracle_stake", constant.OracleStake)
	v.SetDefault("oracle_worker_count", 20)
	v.SetDefault("oracle_worker_seed", 1)
	v.SetDefault("trigger_interval_seconds", 30)
	v.SetDefault("query_server_port", 8080)
	v.SetDefault("cleanup_interval_seconds", 3600)
	v.SetDefault("retention_period_seconds", 86400)
}

func validateConfig(cfg *Config) error {
	if cfg.LogLevel < -1 || cfg.LogLevel > 5 {
		return fmt.Errorf("log level must be between -1 and 5")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("log format must be 'json' or 'console'")
	}
	if cfg.Owner == "" {
		return fmt.Errorf("owner identity is required")
	}
	if cfg.FirstAirline == "" {
		return fmt.Errorf("first airline identity is required")
	}
	if cfg.OracleServiceIdentity == "" {
		return fmt.Errorf("oracle service identity is required")
	}
	if cfg.MinAirlineStake < 0 || cfg.OracleStake < 0 {
		return fmt.Errorf("stakes must not be negative")
	}
	if cfg.OracleWorkerCount < 0 {
		return fmt.Errorf("oracle worker count must not be negative")
	}

	// Defaults for zero values that arrive from partial config files.
	if cfg.QueryServerPort == 0 {
		cfg.QueryServerPort = 8080
	}
	if cfg.TriggerIntervalSeconds == 0 {
		cfg.TriggerIntervalSeconds = 30
	}
	if cfg.CleanupIntervalSeconds == 0 {
		cfg.CleanupIntervalSeconds = 3600
	}
	if cfg.RetentionPeriodSeconds == 0 {
		cfg.RetentionPeriodSeconds = 86400
	}
	return nil
}

// DatabaseDir returns the directory holding the ledger database.
func (c *Config) DatabaseDir() string {
	return filepath.Join(c.NodeHome, constant.DatabasesSubdir)
}
