package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Config{Level: "verbose"}); err == nil {
		t.Error("expected an error for an unrecognized level")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("expected an error for an unrecognized format")
	}
}

func TestInfoWritesJSONByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("hello", "key", "value")

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if decoded["msg"] != "hello" || decoded["key"] != "value" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestInfoSuppressedBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf, Level: "warn"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("should not appear")
	if buf.Len() != 0 {
		t.Errorf("expected no output below the configured level, got %q", buf.String())
	}
}

func TestWithContextIncludesConnAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := WithConnID(context.Background(), 7)
	ctx = WithRequestID(ctx, "req-1")
	logger.WithContext(ctx).Info("request handled")

	out := buf.String()
	if !strings.Contains(out, `"conn_id":7`) {
		t.Errorf("expected conn_id in output: %s", out)
	}
	if !strings.Contains(out, `"request_id":"req-1"`) {
		t.Errorf("expected request_id in output: %s", out)
	}
}

func TestWithContextReturnsSameLoggerWhenEmpty(t *testing.T) {
	logger, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := logger.WithContext(context.Background()); got != logger {
		t.Error("expected WithContext to return the same logger when ctx carries no fields")
	}
}
