package config

import "time"

// Default values applied by ApplyDefaults when the corresponding field is
// left at its zero value.
const (
	DefaultListenAddress   = "127.0.0.1:8443"
	DefaultUpstreamPort    = 443
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultAcceptRateLimitRPS   = 100.0
	DefaultAcceptRateLimitBurst = 200.0

	DefaultCaptureMaxPayloadSize = 64 * 1024
	DefaultCaptureRetentionDays  = 7
	DefaultCapturePruneSchedule  = "0 3 * * *"

	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"

	DefaultMetricsAddress   = "127.0.0.1:9090"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "siphon"

	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingExporter    = "otlp"
	DefaultTracingService     = "siphon"
	DefaultOTLPTimeout        = 10 * time.Second
)

var defaultRequestDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// ApplyDefaults fills zero-valued fields of cfg with the package defaults.
// It is idempotent and safe to call on a partially populated Config loaded
// from YAML.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	applyProxyDefaults(&cfg.Proxy)
	applyCaptureDefaults(&cfg.Capture)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyProxyDefaults(p *ProxyConfig) {
	if p.ListenAddress == "" {
		p.ListenAddress = DefaultListenAddress
	}
	if p.UpstreamPort == 0 {
		p.UpstreamPort = DefaultUpstreamPort
	}
	if p.ReadTimeout == 0 {
		p.ReadTimeout = DefaultReadTimeout
	}
	if p.WriteTimeout == 0 {
		p.WriteTimeout = DefaultWriteTimeout
	}
	if p.ShutdownTimeout == 0 {
		p.ShutdownTimeout = DefaultShutdownTimeout
	}
	if p.AcceptRateLimit.Enabled {
		if p.AcceptRateLimit.RequestsPerSecond == 0 {
			p.AcceptRateLimit.RequestsPerSecond = DefaultAcceptRateLimitRPS
		}
		if p.AcceptRateLimit.Burst == 0 {
			p.AcceptRateLimit.Burst = DefaultAcceptRateLimitBurst
		}
	}
}

func applyCaptureDefaults(c *CaptureConfig) {
	if c.MaxPayloadSize == 0 {
		c.MaxPayloadSize = DefaultCaptureMaxPayloadSize
	}
	if c.RetentionDays == 0 {
		c.RetentionDays = DefaultCaptureRetentionDays
	}
	if c.PruneSchedule == "" {
		c.PruneSchedule = DefaultCapturePruneSchedule
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Address == "" {
		t.Metrics.Address = DefaultMetricsAddress
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(t.Metrics.RequestDurationBuckets) == 0 {
		t.Metrics.RequestDurationBuckets = append([]float64{}, defaultRequestDurationBuckets...)
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.Exporter == "" {
		t.Tracing.Exporter = DefaultTracingExporter
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingService
	}
	if t.Tracing.OTLP.Timeout == 0 {
		t.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
}
