package config

import "testing"

func TestValidateValid(t *testing.T) {
	cfg := MinimalConfig()
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidateNilConfig(t *testing.T) {
	err := Validate(nil)
	if err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestValidateProxy(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "missing listen address",
			mutate:  func(c *Config) { c.Proxy.ListenAddress = "" },
			wantErr: true,
		},
		{
			name:    "missing upstream host",
			mutate:  func(c *Config) { c.Proxy.UpstreamHost = "" },
			wantErr: true,
		},
		{
			name:    "upstream port out of range",
			mutate:  func(c *Config) { c.Proxy.UpstreamPort = 70000 },
			wantErr: true,
		},
		{
			name:    "negative read timeout",
			mutate:  func(c *Config) { c.Proxy.ReadTimeout = -1 },
			wantErr: true,
		},
		{
			name: "rate limit enabled without rps",
			mutate: func(c *Config) {
				c.Proxy.AcceptRateLimit = AcceptRateLimitConfig{Enabled: true}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCapture(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Capture.Enabled = true
	cfg.Capture.Directory = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for capture enabled with empty directory")
	}

	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if !verr.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
}

func TestValidateInjection(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Injection.Enabled = true

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for injection enabled with no content configured")
	}

	cfg.Injection.SystemPrompt = "hello"
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config once a system prompt is set, got: %v", err)
	}
}

func TestValidateEligibility(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Eligibility.Rules = []RuleConfig{
		{Field: "bogus", Operator: "contains", Value: "x"},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid eligibility field")
	}

	cfg.Eligibility.Rules = []RuleConfig{
		{Field: "method", Operator: "bogus", Value: "x"},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid eligibility operator")
	}

	cfg.Eligibility.Rules = []RuleConfig{
		{Field: "method", Operator: "contains", Value: ""},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty eligibility value")
	}
}

func TestValidateTelemetry(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantErr: true,
		},
		{
			name: "tracing enabled with invalid sampler",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "bogus"
			},
			wantErr: true,
		},
		{
			name: "tracing ratio out of range",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "ratio"
				c.Telemetry.Tracing.SampleRatio = 1.5
				c.Telemetry.Tracing.Exporter = "otlp"
				c.Telemetry.Tracing.Endpoint = "localhost:4317"
			},
			wantErr: true,
		},
		{
			name: "otlp exporter without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "always"
				c.Telemetry.Tracing.Exporter = "otlp"
				c.Telemetry.Tracing.Endpoint = ""
			},
			wantErr: true,
		},
		{
			name: "valid tracing config",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "ratio"
				c.Telemetry.Tracing.SampleRatio = 0.5
				c.Telemetry.Tracing.Exporter = "otlp"
				c.Telemetry.Tracing.Endpoint = "localhost:4317"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFieldErrorMessage(t *testing.T) {
	fe := FieldError{Field: "proxy.upstream_port", Value: 70000, Message: "must be between 1 and 65535"}
	want := "proxy.upstream_port: must be between 1 and 65535 (got 70000)"
	if fe.Error() != want {
		t.Errorf("Error() = %q, want %q", fe.Error(), want)
	}
}

func TestValidationErrorAggregatesAll(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Proxy.ListenAddress = ""
	cfg.Proxy.UpstreamHost = ""
	cfg.Telemetry.Logging.Level = "bogus"

	err := Validate(cfg)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(verr.Errors) < 3 {
		t.Errorf("expected at least 3 aggregated errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}
