package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads and parses a YAML configuration file at path, applies
// defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides behaves like LoadConfig but additionally applies
// SIPHON_-prefixed environment variable overrides before validation.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides overlays SIPHON_SECTION_FIELD environment variables on
// top of cfg. Unset variables leave the existing field untouched.
func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("SIPHON_PROXY_LISTEN_ADDRESS"); ok {
		cfg.Proxy.ListenAddress = v
	}
	if v, ok := os.LookupEnv("SIPHON_PROXY_UPSTREAM_HOST"); ok {
		cfg.Proxy.UpstreamHost = v
	}
	if v, ok := os.LookupEnv("SIPHON_PROXY_UPSTREAM_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Proxy.UpstreamPort = n
		}
	}
	if v, ok := os.LookupEnv("SIPHON_PROXY_CERT_DIR"); ok {
		cfg.Proxy.CertDir = v
	}
	if v, ok := os.LookupEnv("SIPHON_PROXY_READ_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Proxy.ReadTimeout = d
		}
	}
	if v, ok := os.LookupEnv("SIPHON_PROXY_WRITE_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Proxy.WriteTimeout = d
		}
	}

	if v, ok := os.LookupEnv("SIPHON_CAPTURE_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Capture.Enabled = b
		}
	}
	if v, ok := os.LookupEnv("SIPHON_CAPTURE_DIRECTORY"); ok {
		cfg.Capture.Directory = v
	}
	if v, ok := os.LookupEnv("SIPHON_CAPTURE_MAX_PAYLOAD_SIZE"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Capture.MaxPayloadSize = n
		}
	}
	if v, ok := os.LookupEnv("SIPHON_CAPTURE_RETENTION_DAYS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Capture.RetentionDays = n
		}
	}

	if v, ok := os.LookupEnv("SIPHON_INJECTION_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Injection.Enabled = b
		}
	}
	if v, ok := os.LookupEnv("SIPHON_INJECTION_SYSTEM_PROMPT"); ok {
		cfg.Injection.SystemPrompt = v
	}
	if v, ok := os.LookupEnv("SIPHON_INJECTION_CONTEXT_FILES"); ok {
		cfg.Injection.ContextFiles = splitAndTrim(v)
	}
	if v, ok := os.LookupEnv("SIPHON_INJECTION_SPOOF_VERSION"); ok {
		cfg.Injection.SpoofVersion = v
	}

	if v, ok := os.LookupEnv("SIPHON_TELEMETRY_LOGGING_LEVEL"); ok {
		cfg.Telemetry.Logging.Level = v
	}
	if v, ok := os.LookupEnv("SIPHON_TELEMETRY_LOGGING_FORMAT"); ok {
		cfg.Telemetry.Logging.Format = v
	}
	if v, ok := os.LookupEnv("SIPHON_TELEMETRY_METRICS_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if v, ok := os.LookupEnv("SIPHON_TELEMETRY_TRACING_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if v, ok := os.LookupEnv("SIPHON_TELEMETRY_TRACING_ENDPOINT"); ok {
		cfg.Telemetry.Tracing.Endpoint = v
	}
	if v, ok := os.LookupEnv("SIPHON_TELEMETRY_TRACING_SAMPLE_RATIO"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
