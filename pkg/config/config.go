package config

import "time"

// Config is the root configuration structure for the proxy.
type Config struct {
	// Proxy contains listener, upstream, and TLS material configuration.
	Proxy ProxyConfig `yaml:"proxy"`

	// Capture contains request/response capture configuration.
	Capture CaptureConfig `yaml:"capture"`

	// Injection contains the payload rewrite configuration.
	Injection InjectionConfig `yaml:"injection"`

	// Eligibility configures which requests injection and capture apply to.
	Eligibility EligibilityConfig `yaml:"eligibility"`

	// Telemetry contains logging, metrics, and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the intercepting proxy server.
type ProxyConfig struct {
	// ListenAddress is the address and port the proxy listens on.
	// Default: "127.0.0.1:8443"
	ListenAddress string `yaml:"listen_address"`

	// UpstreamHost is the single remote host every connection is forwarded to.
	UpstreamHost string `yaml:"upstream_host"`

	// UpstreamPort is the remote port to connect to.
	// Default: 443
	UpstreamPort int `yaml:"upstream_port"`

	// CertDir is the per-user directory holding ca.pem/ca.key and is where
	// generated material is written if absent.
	CertDir string `yaml:"cert_dir"`

	// ReadTimeout bounds reading a client request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response to the client.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AcceptRateLimit bounds the rate of newly accepted connections.
	AcceptRateLimit AcceptRateLimitConfig `yaml:"accept_rate_limit"`
}

// AcceptRateLimitConfig configures the accept-loop token bucket.
type AcceptRateLimitConfig struct {
	// Enabled controls whether the accept loop is rate limited.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained accept rate.
	// Default: 100
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the bucket capacity.
	// Default: 200
	Burst float64 `yaml:"burst"`
}

// CaptureConfig contains configuration for exchange capture to disk.
type CaptureConfig struct {
	// Enabled controls whether exchanges are captured.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Directory is where one JSON file per captured exchange is written.
	Directory string `yaml:"directory"`

	// MaxPayloadSize is the number of body bytes kept before truncation.
	// Default: 65536 (64 KiB)
	MaxPayloadSize int64 `yaml:"max_payload_size"`

	// RetentionDays is how long captured files are kept before pruning.
	// Default: 7
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for the retention sweep.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// InjectionConfig contains configuration for the payload rewrite engine.
type InjectionConfig struct {
	// Enabled controls whether eligible requests are rewritten.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// SystemPrompt is inserted as a synthetic conversation entry.
	SystemPrompt string `yaml:"system_prompt"`

	// ContextFiles are concatenated into the injected entry's content.
	ContextFiles []string `yaml:"context_files"`

	// Headers are added to eligible outgoing requests.
	Headers map[string]string `yaml:"headers"`

	// SpoofVersion, if set, overrides a client version header.
	SpoofVersion string `yaml:"spoof_version"`
}

// EligibilityConfig configures the request-matching policy shared by
// injection and capture.
type EligibilityConfig struct {
	// Rules is the list of OR'd match rules. An empty list falls back to
	// the default "method contains Chat or Unified" rule.
	Rules []RuleConfig `yaml:"rules"`
}

// RuleConfig describes a single eligibility rule.
type RuleConfig struct {
	// Field is "path", "service", or "method".
	Field string `yaml:"field"`

	// Operator is "contains", "equals", or "prefix".
	Operator string `yaml:"operator"`

	// Value is matched against Field using Operator.
	Value string `yaml:"value"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig mirrors logging.Config for YAML loading.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes the file:line of the log call site.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus collector configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Address is the listen address for the metrics/health HTTP server.
	// This is separate from Proxy.ListenAddress, which serves TLS-terminated
	// proxy traffic, not plain HTTP.
	// Default: "127.0.0.1:9090"
	Address string `yaml:"address"`

	// Path is the HTTP path the Prometheus handler is mounted at.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "siphon"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets (seconds).
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig mirrors tracing.Config for YAML loading.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is "always", "never", or "ratio".
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter is "otlp", "jaeger", or "zipkin". Only "otlp" is implemented.
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the trace collector endpoint.
	Endpoint string `yaml:"endpoint"`

	// ServiceName identifies this proxy in traces.
	// Default: "siphon"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds OTLP export calls.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
