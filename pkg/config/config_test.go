package config

import "testing"

func TestNewTestConfig(t *testing.T) {
	cfg := NewTestConfig().Build()

	if cfg.Proxy.ListenAddress != DefaultListenAddress {
		t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Proxy.ListenAddress)
	}
	if cfg.Proxy.ReadTimeout != DefaultReadTimeout {
		t.Errorf("expected read timeout %v, got %v", DefaultReadTimeout, cfg.Proxy.ReadTimeout)
	}
	if cfg.Proxy.UpstreamHost == "" {
		t.Error("expected upstream host to be set")
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("NewTestConfig() should be valid, got: %v", err)
	}
}

func TestConfigBuilderOverrides(t *testing.T) {
	cfg := NewTestConfig().
		WithListenAddress("0.0.0.0:9443").
		WithUpstream("api.cursor.sh", 443).
		WithCaptureEnabled("/tmp/captures").
		WithInjection("be concise").
		WithEligibilityRule("method", "contains", "Chat").
		Build()

	if cfg.Proxy.ListenAddress != "0.0.0.0:9443" {
		t.Errorf("ListenAddress = %q", cfg.Proxy.ListenAddress)
	}
	if cfg.Proxy.UpstreamHost != "api.cursor.sh" || cfg.Proxy.UpstreamPort != 443 {
		t.Errorf("upstream = %s:%d", cfg.Proxy.UpstreamHost, cfg.Proxy.UpstreamPort)
	}
	if !cfg.Capture.Enabled || cfg.Capture.Directory != "/tmp/captures" {
		t.Errorf("capture not set as expected: %+v", cfg.Capture)
	}
	if !cfg.Injection.Enabled || cfg.Injection.SystemPrompt != "be concise" {
		t.Errorf("injection not set as expected: %+v", cfg.Injection)
	}
	if len(cfg.Eligibility.Rules) != 1 {
		t.Fatalf("expected 1 eligibility rule, got %d", len(cfg.Eligibility.Rules))
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestMinimalConfig(t *testing.T) {
	cfg := MinimalConfig()
	if err := Validate(cfg); err != nil {
		t.Errorf("MinimalConfig() should be valid, got: %v", err)
	}
}
