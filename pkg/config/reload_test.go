package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInjectionReloaderPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	initial := "proxy:\n  listen_address: \"127.0.0.1:8443\"\n  upstream_host: \"api.example.com\"\ninjection:\n  enabled: true\n  system_prompt: \"v1\"\n"
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	r, err := NewInjectionReloader(path, cfg.Injection)
	if err != nil {
		t.Fatalf("NewInjectionReloader() error = %v", err)
	}
	defer r.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	if r.Current().SystemPrompt != "v1" {
		t.Fatalf("initial SystemPrompt = %q, want v1", r.Current().SystemPrompt)
	}

	updated := "proxy:\n  listen_address: \"127.0.0.1:8443\"\n  upstream_host: \"api.example.com\"\ninjection:\n  enabled: true\n  system_prompt: \"v2\"\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if r.Current().SystemPrompt == "v2" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("SystemPrompt never reloaded, still %q", r.Current().SystemPrompt)
}

func TestInjectionReloaderStop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("proxy:\n  listen_address: \"127.0.0.1:8443\"\n  upstream_host: \"x\"\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	r, err := NewInjectionReloader(path, InjectionConfig{})
	if err != nil {
		t.Fatalf("NewInjectionReloader() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	cancel()

	if err := r.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
