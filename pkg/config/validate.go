package config

import (
	"fmt"
	"strings"
)

// FieldError describes a single invalid configuration field.
type FieldError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationError aggregates one or more FieldErrors found while validating
// a Config.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Error()
	}
	return fmt.Sprintf("configuration validation failed: %s", strings.Join(parts, "; "))
}

// HasErrors reports whether any validation errors were recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Errors) > 0
}

// Validate checks cfg for structural and semantic errors. Call ApplyDefaults
// before Validate so zero-valued optional fields don't trip required-field
// checks.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &ValidationError{Errors: []FieldError{{Field: "config", Message: "config is nil"}}}
	}

	var errs []FieldError
	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateCapture(&cfg.Capture)...)
	errs = append(errs, validateInjection(&cfg.Injection)...)
	errs = append(errs, validateEligibility(&cfg.Eligibility)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateProxy(p *ProxyConfig) []FieldError {
	var errs []FieldError

	if p.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "proxy.listen_address", Value: p.ListenAddress, Message: "must not be empty"})
	}
	if p.UpstreamHost == "" {
		errs = append(errs, FieldError{Field: "proxy.upstream_host", Value: p.UpstreamHost, Message: "must not be empty"})
	}
	if p.UpstreamPort <= 0 || p.UpstreamPort > 65535 {
		errs = append(errs, FieldError{Field: "proxy.upstream_port", Value: p.UpstreamPort, Message: "must be between 1 and 65535"})
	}
	if p.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.read_timeout", Value: p.ReadTimeout, Message: "must not be negative"})
	}
	if p.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.write_timeout", Value: p.WriteTimeout, Message: "must not be negative"})
	}
	if p.AcceptRateLimit.Enabled {
		if p.AcceptRateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, FieldError{Field: "proxy.accept_rate_limit.requests_per_second", Value: p.AcceptRateLimit.RequestsPerSecond, Message: "must be positive when enabled"})
		}
		if p.AcceptRateLimit.Burst <= 0 {
			errs = append(errs, FieldError{Field: "proxy.accept_rate_limit.burst", Value: p.AcceptRateLimit.Burst, Message: "must be positive when enabled"})
		}
	}

	return errs
}

func validateCapture(c *CaptureConfig) []FieldError {
	var errs []FieldError

	if !c.Enabled {
		return errs
	}
	if c.Directory == "" {
		errs = append(errs, FieldError{Field: "capture.directory", Value: c.Directory, Message: "must not be empty when capture is enabled"})
	}
	if c.MaxPayloadSize <= 0 {
		errs = append(errs, FieldError{Field: "capture.max_payload_size", Value: c.MaxPayloadSize, Message: "must be positive"})
	}
	if c.RetentionDays < 0 {
		errs = append(errs, FieldError{Field: "capture.retention_days", Value: c.RetentionDays, Message: "must not be negative"})
	}

	return errs
}

func validateInjection(i *InjectionConfig) []FieldError {
	var errs []FieldError

	if !i.Enabled {
		return errs
	}
	if i.SystemPrompt == "" && len(i.ContextFiles) == 0 && len(i.Headers) == 0 && i.SpoofVersion == "" {
		errs = append(errs, FieldError{Field: "injection", Message: "injection is enabled but no system_prompt, context_files, headers, or spoof_version is set"})
	}

	return errs
}

var validEligibilityFields = map[string]bool{"path": true, "service": true, "method": true}
var validEligibilityOperators = map[string]bool{"contains": true, "equals": true, "prefix": true}

func validateEligibility(e *EligibilityConfig) []FieldError {
	var errs []FieldError

	for idx, rule := range e.Rules {
		if !validEligibilityFields[rule.Field] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("eligibility.rules[%d].field", idx),
				Value:   rule.Field,
				Message: "must be one of: path, service, method",
			})
		}
		if !validEligibilityOperators[rule.Operator] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("eligibility.rules[%d].operator", idx),
				Value:   rule.Operator,
				Message: "must be one of: contains, equals, prefix",
			})
		}
		if rule.Value == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("eligibility.rules[%d].value", idx),
				Value:   rule.Value,
				Message: "must not be empty",
			})
		}
	}

	return errs
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
var validLogFormats = map[string]bool{"json": true, "text": true}
var validSamplers = map[string]bool{"always": true, "never": true, "ratio": true}
var validTraceExporters = map[string]bool{"otlp": true, "jaeger": true, "zipkin": true}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	if !validLogLevels[t.Logging.Level] {
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Value: t.Logging.Level, Message: "must be one of: debug, info, warn, error"})
	}
	if !validLogFormats[t.Logging.Format] {
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Value: t.Logging.Format, Message: "must be one of: json, text"})
	}

	if t.Metrics.Enabled && t.Metrics.Path == "" {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Value: t.Metrics.Path, Message: "must not be empty when metrics is enabled"})
	}
	if t.Metrics.Enabled && t.Metrics.Address == "" {
		errs = append(errs, FieldError{Field: "telemetry.metrics.address", Value: t.Metrics.Address, Message: "must not be empty when metrics is enabled"})
	}

	if t.Tracing.Enabled {
		if !validSamplers[t.Tracing.Sampler] {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sampler", Value: t.Tracing.Sampler, Message: "must be one of: always, never, ratio"})
		}
		if t.Tracing.Sampler == "ratio" && (t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1) {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Value: t.Tracing.SampleRatio, Message: "must be between 0 and 1"})
		}
		if !validTraceExporters[t.Tracing.Exporter] {
			errs = append(errs, FieldError{Field: "telemetry.tracing.exporter", Value: t.Tracing.Exporter, Message: "must be one of: otlp, jaeger, zipkin"})
		}
		if t.Tracing.Exporter == "otlp" && t.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Value: t.Tracing.Endpoint, Message: "must not be empty for the otlp exporter"})
		}
	}

	return errs
}
