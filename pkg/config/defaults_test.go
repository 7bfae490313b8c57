package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Proxy.ListenAddress != DefaultListenAddress {
					t.Errorf("ListenAddress = %q, want %q", cfg.Proxy.ListenAddress, DefaultListenAddress)
				}
				if cfg.Proxy.UpstreamPort != DefaultUpstreamPort {
					t.Errorf("UpstreamPort = %d, want %d", cfg.Proxy.UpstreamPort, DefaultUpstreamPort)
				}
				if cfg.Proxy.ReadTimeout != DefaultReadTimeout {
					t.Errorf("ReadTimeout = %v, want %v", cfg.Proxy.ReadTimeout, DefaultReadTimeout)
				}
				if cfg.Capture.MaxPayloadSize != DefaultCaptureMaxPayloadSize {
					t.Errorf("MaxPayloadSize = %d, want %d", cfg.Capture.MaxPayloadSize, DefaultCaptureMaxPayloadSize)
				}
				if cfg.Capture.RetentionDays != DefaultCaptureRetentionDays {
					t.Errorf("RetentionDays = %d, want %d", cfg.Capture.RetentionDays, DefaultCaptureRetentionDays)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("Logging.Level = %q, want %q", cfg.Telemetry.Logging.Level, DefaultLoggingLevel)
				}
				if cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
					t.Errorf("Metrics.Namespace = %q, want %q", cfg.Telemetry.Metrics.Namespace, DefaultMetricsNamespace)
				}
				if cfg.Telemetry.Metrics.Address != DefaultMetricsAddress {
					t.Errorf("Metrics.Address = %q, want %q", cfg.Telemetry.Metrics.Address, DefaultMetricsAddress)
				}
				if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
					t.Error("expected default request duration buckets to be populated")
				}
				if cfg.Telemetry.Tracing.Sampler != DefaultTracingSampler {
					t.Errorf("Tracing.Sampler = %q, want %q", cfg.Telemetry.Tracing.Sampler, DefaultTracingSampler)
				}
				if cfg.Telemetry.Tracing.OTLP.Timeout != DefaultOTLPTimeout {
					t.Errorf("OTLP.Timeout = %v, want %v", cfg.Telemetry.Tracing.OTLP.Timeout, DefaultOTLPTimeout)
				}
			},
		},
		{
			name: "explicit values are preserved",
			input: Config{
				Proxy: ProxyConfig{
					ListenAddress: "10.0.0.1:1234",
					ReadTimeout:   5 * time.Second,
				},
				Capture: CaptureConfig{
					MaxPayloadSize: 1024,
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Proxy.ListenAddress != "10.0.0.1:1234" {
					t.Errorf("ListenAddress was overwritten: %q", cfg.Proxy.ListenAddress)
				}
				if cfg.Proxy.ReadTimeout != 5*time.Second {
					t.Errorf("ReadTimeout was overwritten: %v", cfg.Proxy.ReadTimeout)
				}
				if cfg.Capture.MaxPayloadSize != 1024 {
					t.Errorf("MaxPayloadSize was overwritten: %d", cfg.Capture.MaxPayloadSize)
				}
				// Untouched fields still get defaults.
				if cfg.Capture.RetentionDays != DefaultCaptureRetentionDays {
					t.Errorf("RetentionDays = %d, want default", cfg.Capture.RetentionDays)
				}
			},
		},
		{
			name: "accept rate limit defaults only apply when enabled",
			input: Config{
				Proxy: ProxyConfig{
					AcceptRateLimit: AcceptRateLimitConfig{Enabled: true},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Proxy.AcceptRateLimit.RequestsPerSecond != DefaultAcceptRateLimitRPS {
					t.Errorf("RequestsPerSecond = %v, want %v", cfg.Proxy.AcceptRateLimit.RequestsPerSecond, DefaultAcceptRateLimitRPS)
				}
				if cfg.Proxy.AcceptRateLimit.Burst != DefaultAcceptRateLimitBurst {
					t.Errorf("Burst = %v, want %v", cfg.Proxy.AcceptRateLimit.Burst, DefaultAcceptRateLimitBurst)
				}
			},
		},
		{
			name:  "nil config is a no-op",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				ApplyDefaults(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaultsIdempotent(t *testing.T) {
	cfg := Config{}
	ApplyDefaults(&cfg)
	first := cfg
	ApplyDefaults(&cfg)

	if cfg.Proxy.ListenAddress != first.Proxy.ListenAddress {
		t.Error("ApplyDefaults is not idempotent for Proxy.ListenAddress")
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) != len(first.Telemetry.Metrics.RequestDurationBuckets) {
		t.Error("ApplyDefaults duplicated default buckets on second call")
	}
}
