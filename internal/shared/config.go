package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Migration   MigrationConfig   `toml:"migration"`
}

// CredentialsConfig contains provider-specific OAuth client credentials.
type CredentialsConfig struct {
	Spotify ProviderConfig `toml:"spotify"`
	YouTube ProviderConfig `toml:"youtube"`
}

// ProviderConfig contains the OAuth client registration for one provider.
type ProviderConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// MigrationConfig contains tuning knobs for the migration pipeline.
type MigrationConfig struct {
	RefreshBufferSeconds  int `toml:"refresh_buffer_seconds"`
	SearchIntervalMS      int `toml:"search_interval_ms"`
	PageSize              int `toml:"page_size"`
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

// RefreshBuffer returns the credential refresh buffer as a [time.Duration].
func (m MigrationConfig) RefreshBuffer() time.Duration {
	return time.Duration(m.RefreshBufferSeconds) * time.Second
}

// SearchInterval returns the minimum spacing between destination search calls.
func (m MigrationConfig) SearchInterval() time.Duration {
	return time.Duration(m.SearchIntervalMS) * time.Millisecond
}

// RequestTimeout returns the per-call deadline for external requests.
func (m MigrationConfig) RequestTimeout() time.Duration {
	return time.Duration(m.RequestTimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.applyDefaults()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyDefaults()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyDefaults fills zero-valued migration knobs so a partial config file still works.
func (c *Config) applyDefaults() {
	if c.Migration.RefreshBufferSeconds <= 0 {
		c.Migration.RefreshBufferSeconds = 60
	}
	if c.Migration.SearchIntervalMS <= 0 {
		c.Migration.SearchIntervalMS = 1100
	}
	if c.Migration.PageSize <= 0 {
		c.Migration.PageSize = 50
	}
	if c.Migration.RequestTimeoutSeconds <= 0 {
		c.Migration.RequestTimeoutSeconds = 30
	}
}
