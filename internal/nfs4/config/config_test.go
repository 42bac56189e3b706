package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected default level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default format text, got %q", cfg.Logging.Format)
	}
	if cfg.DialTimeout != 10*time.Second {
		t.Errorf("expected default dial_timeout 10s, got %v", cfg.DialTimeout)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("expected default sample_rate 1.0, got %v", cfg.Telemetry.SampleRate)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
server: "nfs.example.com:2049"
export: "/export/home"
logging:
  level: "debug"
metrics:
  enabled: true
  port: 9100
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server != "nfs.example.com:2049" {
		t.Errorf("expected server from file, got %q", cfg.Server)
	}
	if cfg.Export != "/export/home" {
		t.Errorf("expected export from file, got %q", cfg.Export)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected normalized level DEBUG, got %q", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9100 {
		t.Errorf("expected metrics enabled on port 9100, got %+v", cfg.Metrics)
	}
	// Unspecified fields still get their defaults.
	if cfg.CallTimeout != 30*time.Second {
		t.Errorf("expected default call_timeout 30s, got %v", cfg.CallTimeout)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("LIBNFS_SERVER", "10.0.0.5:2049")
	t.Setenv("LIBNFS_LOGGING_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server != "10.0.0.5:2049" {
		t.Errorf("expected server from env, got %q", cfg.Server)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("expected level from env, got %q", cfg.Logging.Level)
	}
}
