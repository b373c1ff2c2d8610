// Package daemon wires the SafeRent core together: configuration,
// storage, the signing key, and the HTTP server lifecycle.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Validator ValidatorConfig `toml:"validator"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type StorageConfig struct {
	// Path to the SQLite database file holding the queue and the ledger.
	Path string `toml:"path"`
}

type ValidatorConfig struct {
	// Name recorded in every block this validator signs.
	Name string `toml:"name"`
	// KeyFile holds the hex-encoded secp256k1 private key.
	KeyFile string `toml:"key_file"`
	// AccessKey authorizes accept/reject decisions over the API.
	AccessKey string `toml:"access_key"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
		},
		Storage: StorageConfig{
			Path: filepath.Join(homeDir(), "saferent.db"),
		},
		Validator: ValidatorConfig{
			Name:    "NEOMA BS",
			KeyFile: filepath.Join(homeDir(), "validator.key"),
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from path, falling back to defaults for any
// section the file omits. A missing file is not an error: the defaults
// apply and the first run proceeds without ceremony.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	return filepath.Join(homeDir(), "config.toml")
}

// Addr returns the host:port the API server binds to.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// homeDir resolves the SafeRent state directory, honoring the
// SAFERENT_HOME override used in tests and containers.
func homeDir() string {
	if env := os.Getenv("SAFERENT_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".saferent")
}
