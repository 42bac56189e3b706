// Package config loads the nfs4stat client's configuration from environment
// variables, an optional config file, and defaults, the same way the wider
// protocol stack this client was grounded on loads its server configuration.
// CLI flags are not read here; nfs4stat applies them to the loaded Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the nfs4stat client's configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (LIBNFS_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Server is the target NFSv4 server address (host:port, default port 2049).
	Server string `mapstructure:"server" yaml:"server"`

	// Export is the exported path to mount.
	Export string `mapstructure:"export" yaml:"export"`

	// DialTimeout is the connect share of nfs4stat's overall deadline.
	// nfs4stat adds it to CallTimeout and uses the sum as one deadline
	// covering the whole mount and stat; it does not bound the connect alone.
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`

	// CallTimeout is the request share of that same overall deadline; it
	// does not bound a single COMPOUND round trip on its own.
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics controls the optional Prometheus metrics registration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls OpenTelemetry tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase).
	Level string `mapstructure:"level" yaml:"level"`

	// Format specifies the log output format. Valid values: text, json.
	Format string `mapstructure:"format" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig configures Prometheus metrics registration.
type MetricsConfig struct {
	// Enabled controls whether the client registers Prometheus collectors.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the configured port for a /metrics endpoint. It is loaded and
	// defaulted here, but this module starts no HTTP listener on it.
	Port int `mapstructure:"port" yaml:"port"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	// Enabled is the configured tracing switch. This module installs no
	// tracer provider from it; internal/telemetry always uses the global
	// OpenTelemetry provider, which is a no-op unless the host sets one.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the configured OTLP collector endpoint (host:port). No
	// exporter is created from it in this module.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// SampleRate is the configured trace sampling rate (0.0 to 1.0). No
	// sampler is built from it in this module.
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// Load loads configuration from file, environment, and defaults.
//
// configPath may be empty, in which case config.yaml is looked for in
// $XDG_CONFIG_HOME/libnfs (or ~/.config/libnfs); if no file is found, only
// environment variables and defaults apply (no file is required to exist).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if found {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	} else {
		// AutomaticEnv + explicit Get calls still apply even with no file;
		// BindEnv was already registered in setupViper for every key we care
		// about, so pull them through viper rather than os.Getenv directly.
		cfg.Server = v.GetString("server")
		cfg.Export = v.GetString("export")
		cfg.DialTimeout = v.GetDuration("dial_timeout")
		cfg.CallTimeout = v.GetDuration("call_timeout")
		cfg.Logging.Level = v.GetString("logging.level")
		cfg.Logging.Format = v.GetString("logging.format")
		cfg.Logging.Output = v.GetString("logging.output")
		cfg.Metrics.Enabled = v.GetBool("metrics.enabled")
		cfg.Metrics.Port = v.GetInt("metrics.port")
		cfg.Telemetry.Enabled = v.GetBool("telemetry.enabled")
		cfg.Telemetry.Endpoint = v.GetString("telemetry.endpoint")
		cfg.Telemetry.SampleRate = v.GetFloat64("telemetry.sample_rate")
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// ApplyDefaults fills unset fields with sensible defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("LIBNFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{
		"server", "export", "dial_timeout", "call_timeout",
		"logging.level", "logging.format", "logging.output",
		"metrics.enabled", "metrics.port",
		"telemetry.enabled", "telemetry.endpoint", "telemetry.sample_rate",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "libnfs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "libnfs")
}
