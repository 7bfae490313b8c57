package injection

import (
	"compress/gzip"
	"bytes"
	"log/slog"
	"io"
	"testing"

	"siphon/pkg/connectproto"
	"siphon/pkg/wireproto"
)

func samplePayload() []byte {
	existing := wireproto.AppendStringField(nil, 1, "hi")
	convHistory := wireproto.AppendLenField(nil, fieldConversationEntry, existing)
	userRequest := wireproto.AppendLenField(nil, fieldConversationHistory, convHistory)
	return wireproto.AppendLenField(nil, fieldUserRequest, userRequest)
}

func newTestEngine() *Engine {
	cfg := NewConfig()
	cfg.Update(Snapshot{Enabled: true, SystemPrompt: "SYS"})
	return NewEngine(cfg, DefaultMatcher(), slog.New(slog.DiscardHandler))
}

func TestApplyNoRewriteWhenDisabled(t *testing.T) {
	cfg := NewConfig()
	cfg.Update(Snapshot{Enabled: false, SystemPrompt: "SYS"})
	e := NewEngine(cfg, DefaultMatcher(), slog.New(slog.DiscardHandler))

	frame := connectproto.Frame{Payload: samplePayload()}
	out, modified := e.Apply("/aiserver.v1.ChatService/StreamUnifiedChatWithTools", frame)
	if modified {
		t.Error("expected no modification when injection is disabled")
	}
	if string(out.Payload) != string(frame.Payload) {
		t.Error("expected payload to be returned unchanged")
	}
}

func TestApplyNoRewriteOnIneligiblePath(t *testing.T) {
	e := newTestEngine()
	frame := connectproto.Frame{Payload: samplePayload()}
	_, modified := e.Apply("/aiserver.v1.OtherService/Ping", frame)
	if modified {
		t.Error("expected no modification for a path not matching the eligibility rules")
	}
}

func TestApplyNoRewriteWhenNothingToInject(t *testing.T) {
	cfg := NewConfig()
	cfg.Update(Snapshot{Enabled: true})
	e := NewEngine(cfg, DefaultMatcher(), slog.New(slog.DiscardHandler))

	frame := connectproto.Frame{Payload: samplePayload()}
	_, modified := e.Apply("/aiserver.v1.ChatService/StreamUnifiedChatWithTools", frame)
	if modified {
		t.Error("expected no modification when system_prompt and context_files are both empty")
	}
}

func TestApplyRewritesEligibleUncompressedFrame(t *testing.T) {
	e := newTestEngine()
	frame := connectproto.Frame{Flags: 0, Payload: samplePayload()}

	out, modified := e.Apply("/aiserver.v1.ChatService/StreamUnifiedChatWithTools", frame)
	if !modified {
		t.Fatal("expected the request to be modified")
	}
	if out.Flags != 0 {
		t.Errorf("Flags = %#x, want 0", out.Flags)
	}
	if e.ModifiedCount() != 1 {
		t.Errorf("ModifiedCount() = %d, want 1", e.ModifiedCount())
	}

	outerFields, err := wireproto.ParseFields(out.Payload)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}
	if _, ok := wireproto.FindFirst(outerFields, fieldUserRequest); !ok {
		t.Fatal("expected user_request field to survive rewrite")
	}
}

func TestApplyRewritesGzipFramePreservingFlag(t *testing.T) {
	e := newTestEngine()

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(samplePayload()); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	frame := connectproto.Frame{Flags: connectproto.FlagGzip, Payload: buf.Bytes()}
	out, modified := e.Apply("/aiserver.v1.ChatService/StreamUnifiedChatWithTools", frame)
	if !modified {
		t.Fatal("expected the compressed request to be modified")
	}
	if !out.IsGzip() {
		t.Error("expected the gzip flag to be preserved on the rewritten frame")
	}

	r, err := gzip.NewReader(bytes.NewReader(out.Payload))
	if err != nil {
		t.Fatalf("gzip.NewReader on rewritten payload: %v", err)
	}
	decompressed, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading decompressed payload: %v", err)
	}
	if _, err := wireproto.ParseFields(decompressed); err != nil {
		t.Errorf("rewritten decompressed payload does not parse: %v", err)
	}
}

func TestApplyForwardsOriginalOnStructuralError(t *testing.T) {
	e := newTestEngine()
	malformed := wireproto.AppendStringField(nil, 9, "no user_request here")
	frame := connectproto.Frame{Payload: malformed}

	out, modified := e.Apply("/aiserver.v1.ChatService/StreamUnifiedChatWithTools", frame)
	if modified {
		t.Error("expected no modification when the structure is missing the expected path")
	}
	if string(out.Payload) != string(malformed) {
		t.Error("expected the original bytes to be forwarded unchanged on structural error")
	}
	if e.ModifiedCount() != 0 {
		t.Errorf("ModifiedCount() = %d, want 0", e.ModifiedCount())
	}
}

func TestHeaderRewritesReflectsSpoofVersionAndHeaders(t *testing.T) {
	cfg := NewConfig()
	cfg.Update(Snapshot{
		Enabled:      true,
		Headers:      map[string]string{"x-extra": "1"},
		SpoofVersion: "9.9.9",
	})
	e := NewEngine(cfg, DefaultMatcher(), slog.New(slog.DiscardHandler))

	headers, spoof, ok := e.HeaderRewrites()
	if !ok {
		t.Fatal("expected HeaderRewrites to report ok when enabled")
	}
	if headers["x-extra"] != "1" {
		t.Errorf("headers[x-extra] = %q, want %q", headers["x-extra"], "1")
	}
	if spoof != "9.9.9" {
		t.Errorf("spoofVersion = %q, want %q", spoof, "9.9.9")
	}
}
