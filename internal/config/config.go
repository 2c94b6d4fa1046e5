package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user preferences
type Config struct {
	ConfirmDelete bool `yaml:"confirm_delete" json:"confirm_delete"` // Require confirmation for delete

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging

	// Storage
	DBDriver string `yaml:"db_driver" json:"db_driver"` // sqlite or postgres
	DBDSN    string `yaml:"db_dsn" json:"db_dsn"`       // File path or connection URL

	// Locale is a BCP 47 tag used for date labels
	Locale string `yaml:"locale" json:"locale"`

	// Handoff server
	ServerURL   string `yaml:"server_url" json:"server_url"`
	ServerToken string `yaml:"server_token,omitempty" json:"server_token,omitempty"`
}

// Dir returns the configuration directory (~/.irontrack)
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".irontrack"), nil
}

// DefaultPath returns ~/.irontrack/config.yaml
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	cfg := &Config{
		ConfirmDelete: true,
		LogLevel:      "INFO",
		DBDriver:      "sqlite",
		Locale:        "en",
		ServerURL:     "http://localhost:8080",
	}
	if dir, err := Dir(); err == nil {
		cfg.LogFile = filepath.Join(dir, "logs", "irontrack.log")
		cfg.DBDSN = filepath.Join(dir, "tracker.db")
	}
	return cfg
}

// applyEnv lets IRONTRACK_* variables override file values
func (c *Config) applyEnv() {
	c.LogLevel = getEnv("IRONTRACK_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("IRONTRACK_LOG_FILE", c.LogFile)
	if v := os.Getenv("IRONTRACK_LOG_CONSOLE"); v != "" {
		c.LogConsole = v == "true"
	}
	c.DBDriver = getEnv("IRONTRACK_DB_DRIVER", c.DBDriver)
	c.DBDSN = getEnv("IRONTRACK_DB_DSN", c.DBDSN)
	c.Locale = getEnv("IRONTRACK_LOCALE", c.Locale)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load loads config from ~/.irontrack/config.yaml
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyEnv()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()

	return cfg, nil
}

// Save saves config to ~/.irontrack/config.yaml
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating the directory when needed
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold a server token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
