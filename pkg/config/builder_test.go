package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in
// tests. It starts from default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder seeded with valid defaults.
func NewTestConfig() *ConfigBuilder {
	cfg := Config{
		Proxy: ProxyConfig{
			UpstreamHost: "api.example.com",
		},
	}
	ApplyDefaults(&cfg)
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithListenAddress sets the proxy listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Proxy.ListenAddress = addr
	return b
}

// WithUpstream sets the upstream host and port.
func (b *ConfigBuilder) WithUpstream(host string, port int) *ConfigBuilder {
	b.cfg.Proxy.UpstreamHost = host
	b.cfg.Proxy.UpstreamPort = port
	return b
}

// WithReadTimeout sets the proxy read timeout.
func (b *ConfigBuilder) WithReadTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Proxy.ReadTimeout = d
	return b
}

// WithCaptureEnabled enables capture to the given directory.
func (b *ConfigBuilder) WithCaptureEnabled(dir string) *ConfigBuilder {
	b.cfg.Capture.Enabled = true
	b.cfg.Capture.Directory = dir
	return b
}

// WithInjection enables injection with the given system prompt.
func (b *ConfigBuilder) WithInjection(systemPrompt string) *ConfigBuilder {
	b.cfg.Injection.Enabled = true
	b.cfg.Injection.SystemPrompt = systemPrompt
	return b
}

// WithEligibilityRule appends an eligibility rule.
func (b *ConfigBuilder) WithEligibilityRule(field, operator, value string) *ConfigBuilder {
	b.cfg.Eligibility.Rules = append(b.cfg.Eligibility.Rules, RuleConfig{
		Field: field, Operator: operator, Value: value,
	})
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithLoggingFormat sets the logging format.
func (b *ConfigBuilder) WithLoggingFormat(format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Format = format
	return b
}

// WithMetricsEnabled sets whether metrics are enabled.
func (b *ConfigBuilder) WithMetricsEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Telemetry.Metrics.Enabled = enabled
	return b
}

// WithTracingEnabled sets whether tracing is enabled and its endpoint.
func (b *ConfigBuilder) WithTracingEnabled(enabled bool, endpoint string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = enabled
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	if b.cfg.Telemetry.Tracing.SampleRatio == 0 {
		b.cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
