package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("SAFERENT_HOME", t.TempDir())
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8090 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8090)
	}
	if cfg.Validator.Name != "NEOMA BS" {
		t.Errorf("Validator.Name = %q, want %q", cfg.Validator.Name, "NEOMA BS")
	}
	if cfg.Validator.AccessKey != "" {
		t.Error("Validator.AccessKey should have no default (must be configured)")
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be true by default")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SAFERENT_HOME", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-config.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Errorf("API.Port = %d, want default %d", cfg.API.Port, DefaultConfig().API.Port)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("SAFERENT_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
port = 9000

[validator]
name = "ACME HOUSING"
access_key = "super-secret"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want default %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.Validator.Name != "ACME HOUSING" {
		t.Errorf("Validator.Name = %q, want %q", cfg.Validator.Name, "ACME HOUSING")
	}
	if cfg.Validator.AccessKey != "super-secret" {
		t.Errorf("Validator.AccessKey = %q, want %q", cfg.Validator.AccessKey, "super-secret")
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should keep its default when unset")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Setenv("SAFERENT_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api\nport = nope"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() = nil error for malformed TOML, want failure")
	}
}

func TestAddr(t *testing.T) {
	cfg := Config{API: APIConfig{Host: "0.0.0.0", Port: 8090}}
	if got := cfg.Addr(); got != "0.0.0.0:8090" {
		t.Errorf("Addr() = %q, want %q", got, "0.0.0.0:8090")
	}
}
