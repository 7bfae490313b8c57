package config

import (
	"os"
	"path/filepath"
	"testing"
)

func BenchmarkApplyDefaults(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cfg := Config{}
		ApplyDefaults(&cfg)
	}
}

func BenchmarkValidate(b *testing.B) {
	cfg := MinimalConfig()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Validate(cfg)
	}
}

func BenchmarkLoadConfig(b *testing.B) {
	dir := b.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "proxy:\n  listen_address: \"127.0.0.1:8443\"\n  upstream_host: \"api.example.com\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		b.Fatalf("writing config: %v", err)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := LoadConfig(path); err != nil {
			b.Fatalf("LoadConfig() error = %v", err)
		}
	}
}

func BenchmarkGetConfig(b *testing.B) {
	SetConfig(MinimalConfig())
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = GetConfig()
	}
}
