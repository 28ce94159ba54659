/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the rowcheck configuration
type Config struct {
	Harness Harness `yaml:"harness"`
	Store   Store   `yaml:"store"`
	Metrics Metrics `yaml:"metrics"`
	Logging Logging `yaml:"logging"`
}

// Harness controls the round-trip verification loop
type Harness struct {
	// Attempts is the total number of attempts; 0 runs until cancelled.
	Attempts       int `yaml:"attempts"`
	RowsPerAttempt int `yaml:"rows_per_attempt"`
	// Workers is the number of concurrent workers; 0 means one per CPU.
	Workers int    `yaml:"workers"`
	Series  string `yaml:"series"`
}

// Store contains settings for the per-attempt row store
type Store struct {
	InMemory bool   `yaml:"in_memory"`
	DataDir  string `yaml:"data_dir"`
}

// Metrics contains the optional metrics listener configuration
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `yaml:"bind"`
	Port    int    `yaml:"port"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Harness: Harness{
			Attempts:       1000,
			RowsPerAttempt: 10,
			Workers:        0,
			Series:         "name",
		},
		Store: Store{
			InMemory: true,
			DataDir:  "./data",
		},
		Metrics: Metrics{
			Enabled: false,
			Bind:    "127.0.0.1",
			Port:    9200,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	if c.Harness.Attempts < 0 {
		return errors.Newf("harness.attempts must not be negative: %d", c.Harness.Attempts)
	}
	if c.Harness.RowsPerAttempt <= 0 {
		return errors.Newf("harness.rows_per_attempt must be positive: %d", c.Harness.RowsPerAttempt)
	}
	if c.Harness.Workers < 0 {
		return errors.Newf("harness.workers must not be negative: %d", c.Harness.Workers)
	}
	if !c.Store.InMemory && c.Store.DataDir == "" {
		return errors.New("store.data_dir is required when store.in_memory is false")
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return errors.Newf("metrics.port out of range: %d", c.Metrics.Port)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("unknown logging.level %q", c.Logging.Level)
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.Newf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, errors.Wrap(err, "invalid config path")
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./rowcheck.yaml"
	}

	// For Linux/macOS, use ~/.config/rowcheck/config.yaml
	configDir := filepath.Join(homeDir, ".config", "rowcheck")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
