package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".companion-terminal"
	DefaultConfigFile = "config.yaml"
)

// Config represents the application configuration
type Config struct {
	Gemini  GeminiConfig  `yaml:"gemini"`
	Reveal  RevealConfig  `yaml:"reveal"`
	Storage StorageConfig `yaml:"storage"`
}

// GeminiConfig carries the completion service transport details. The
// credential is configuration, not part of the core contract; a missing key
// surfaces as a recoverable failure at send time, not a startup fault.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// RevealConfig controls the simulated typing cadence.
type RevealConfig struct {
	// IntervalMS: milliseconds between reveal ticks, one character each
	IntervalMS int `yaml:"interval_ms"`
}

// StorageConfig bounds the persisted collection.
type StorageConfig struct {
	// CeilingMB: absolute size ceiling for the serialized collection
	CeilingMB int `yaml:"ceiling_mb"`

	// SafetyFraction: usable share of the reported quota (0.0-1.0)
	SafetyFraction float64 `yaml:"safety_fraction"`

	// DebounceMS: quiet window coalescing persistence writes
	DebounceMS int `yaml:"debounce_ms"`

	// QuotaMB: reported storage quota; 0 means unreported/unbounded
	QuotaMB int `yaml:"quota_mb"`
}

func DefaultConfig() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Reveal: RevealConfig{
			IntervalMS: 6, // one character every 6ms
		},
		Storage: StorageConfig{
			CeilingMB:      200,
			SafetyFraction: 0.9,
			DebounceMS:     400,
		},
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)
	return filepath.Join(configDir, DefaultConfigFile), nil
}

// GetDataDir returns the directory holding the badger database.
func GetDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir, "db"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// Load loads the configuration from file, creating default if not exists.
// The GEMINI_API_KEY environment variable overrides the configured key.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create default. If save fails, just
		// return defaults; the app works without a writable config.
		if err := Save(cfg); err == nil {
			cfg.applyEnv()
			return cfg, nil
		}
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Reveal.IntervalMS <= 0 {
		return fmt.Errorf("reveal.interval_ms must be positive, got %d", c.Reveal.IntervalMS)
	}
	if c.Storage.CeilingMB <= 0 {
		return fmt.Errorf("storage.ceiling_mb must be positive, got %d", c.Storage.CeilingMB)
	}
	if c.Storage.SafetyFraction <= 0.0 || c.Storage.SafetyFraction > 1.0 {
		return fmt.Errorf("storage.safety_fraction must be in (0.0, 1.0], got %f", c.Storage.SafetyFraction)
	}
	if c.Storage.DebounceMS <= 0 {
		return fmt.Errorf("storage.debounce_ms must be positive, got %d", c.Storage.DebounceMS)
	}
	if c.Storage.QuotaMB < 0 {
		return fmt.Errorf("storage.quota_mb must not be negative, got %d", c.Storage.QuotaMB)
	}
	return nil
}

// RevealInterval returns the reveal tick cadence.
func (c *Config) RevealInterval() time.Duration {
	return time.Duration(c.Reveal.IntervalMS) * time.Millisecond
}

// DebounceWindow returns the persistence quiet window.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Storage.DebounceMS) * time.Millisecond
}

// CeilingBytes returns the absolute storage ceiling in bytes.
func (c *Config) CeilingBytes() int {
	return c.Storage.CeilingMB << 20
}

// QuotaBytes returns the reported quota in bytes, 0 when unreported.
func (c *Config) QuotaBytes() uint64 {
	return uint64(c.Storage.QuotaMB) << 20
}
