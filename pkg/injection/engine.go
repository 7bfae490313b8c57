package injection

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"siphon/pkg/connectproto"
)

// Engine holds the live injection configuration and the counter of
// requests it has modified. It never returns an error to its caller: any
// failure is logged and treated as "forward the original bytes".
type Engine struct {
	config   *Config
	matcher  *Matcher
	modified atomic.Uint64
	logger   *slog.Logger
}

// NewEngine wires a configuration and an eligibility matcher together.
// Pass DefaultMatcher() for the stock "contains Chat or Unified" rule.
func NewEngine(config *Config, matcher *Matcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{config: config, matcher: matcher, logger: logger}
}

// ModifiedCount returns the number of requests rewritten so far.
func (e *Engine) ModifiedCount() uint64 {
	return e.modified.Load()
}

// HeaderRewrites returns the headers the upstream request should carry,
// applied whether or not the body ends up modified. ok is false when
// injection is disabled, in which case the map is empty and should not
// be applied.
func (e *Engine) HeaderRewrites() (headers map[string]string, spoofVersion string, ok bool) {
	snap := e.config.Load()
	if !snap.Enabled {
		return nil, "", false
	}
	return snap.Headers, snap.SpoofVersion, true
}

// Apply runs the full decision logic against one Connect-Protocol frame
// and returns the frame to forward. It always returns a usable frame;
// modified reports whether a rewrite actually happened.
func (e *Engine) Apply(path string, frame connectproto.Frame) (out connectproto.Frame, modified bool) {
	snap := e.config.Load()

	if !snap.Enabled {
		return frame, false
	}
	if !e.matcher.Eligible(path) {
		return frame, false
	}

	text := e.buildInjectionText(snap)
	if text == "" {
		return frame, false
	}

	rewritten, err := e.rewriteFrame(frame, text)
	if err != nil {
		e.logger.Warn("injection rewrite failed, forwarding original body", "path", path, "error", err)
		return frame, false
	}

	e.modified.Add(1)
	return rewritten, true
}

// buildInjectionText concatenates the configured system prompt with each
// context file's contents under a "--- {path} ---" header. A file that
// fails to read is logged and skipped, never aborting the whole build.
func (e *Engine) buildInjectionText(snap Snapshot) string {
	var b strings.Builder
	if snap.SystemPrompt != "" {
		b.WriteString(snap.SystemPrompt)
	}
	for _, path := range snap.ContextFiles {
		contents, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("skipping unreadable context file", "path", path, "error", err)
			continue
		}
		fmt.Fprintf(&b, "--- %s ---\n", path)
		b.Write(contents)
	}
	return b.String()
}

func (e *Engine) rewriteFrame(frame connectproto.Frame, injectionText string) (connectproto.Frame, error) {
	payload := frame.Payload
	compressed := frame.IsGzip()

	if compressed {
		decompressed, err := gunzip(payload)
		if err != nil {
			return connectproto.Frame{}, fmt.Errorf("gzip decompress: %w", err)
		}
		payload = decompressed
	}

	newPayload, err := rewriteChatPayload(payload, injectionText)
	if err != nil {
		return connectproto.Frame{}, err
	}

	if compressed {
		recompressed, err := gzipBytes(newPayload)
		if err != nil {
			return connectproto.Frame{}, fmt.Errorf("gzip compress: %w", err)
		}
		newPayload = recompressed
	}

	return connectproto.Frame{Flags: frame.Flags, Payload: newPayload}, nil
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
