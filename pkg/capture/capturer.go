package capture

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"siphon/pkg/injection"
)

const savePermits = 10

// Settings is the runtime-mutable capture configuration, read under a
// shared lock the same way the injection configuration is.
type Settings struct {
	Enabled        bool
	Directory      string
	MaxPayloadSize int
	RetentionDays  int
}

// Capturer writes one JSON file per eligible request/response exchange,
// bounded to savePermits concurrent writes.
type Capturer struct {
	mu       sync.RWMutex
	settings Settings

	matcher *injection.Matcher
	sem     chan struct{}
	logger  *slog.Logger
}

// NewCapturer returns a disabled Capturer. Call Configure before use.
func NewCapturer(matcher *injection.Matcher, logger *slog.Logger) *Capturer {
	if logger == nil {
		logger = slog.Default()
	}
	if matcher == nil {
		matcher = injection.DefaultMatcher()
	}
	return &Capturer{
		matcher: matcher,
		sem:     make(chan struct{}, savePermits),
		logger:  logger,
	}
}

// Configure replaces the capture settings wholesale.
func (c *Capturer) Configure(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
}

func (c *Capturer) snapshot() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Builder accumulates one exchange's request and response before it is
// handed to Save.
type Builder struct {
	id         string
	connID     uint64
	method     string
	path       string
	maxPayload int
	start      time.Time

	requestHeaders []Header
	requestBody    Body

	responseStatus  int
	responseHeaders []Header
	responseBody    *Body
}

// Begin starts capturing one exchange. It returns nil when capture is
// disabled, or when path is not eligible — the same criterion injection
// uses for rewrite eligibility. service and method are the gRPC service
// and method names extracted from the request path (injection.ServiceAndMethod),
// not the bare HTTP verb — every request on this proxy is a POST, so the
// HTTP verb carries no information and would collide every exchange on a
// connection into the same capture file.
func (c *Capturer) Begin(connID uint64, service, method, path string) *Builder {
	s := c.snapshot()
	if !s.Enabled {
		return nil
	}
	if !c.matcher.Eligible(path) {
		return nil
	}
	return &Builder{
		id:         uuid.NewString(),
		connID:     connID,
		method:     fmt.Sprintf("%s_%s", service, method),
		path:       path,
		maxPayload: s.MaxPayloadSize,
		start:      time.Now(),
	}
}

// CaptureRequest records the request side of the exchange.
func (b *Builder) CaptureRequest(headers []Header, body []byte, contentTypeHint string) {
	b.requestHeaders = headers
	b.requestBody = captureBody(body, contentTypeHint, b.maxPayload)
}

// CaptureResponse records the response side of the exchange. Callers
// that stream the response without buffering it may skip this call,
// leaving ResponseBody absent, per the data model.
func (b *Builder) CaptureResponse(status int, headers []Header, body []byte, contentTypeHint string) {
	b.responseStatus = status
	b.responseHeaders = headers
	captured := captureBody(body, contentTypeHint, b.maxPayload)
	b.responseBody = &captured
}

// Finish produces the exchange record, stamping its duration from Begin.
func (b *Builder) Finish() Exchange {
	return Exchange{
		ID:              b.id,
		Time:            b.start,
		ConnID:          b.connID,
		Method:          b.method,
		Path:            b.path,
		RequestHeaders:  b.requestHeaders,
		RequestBody:     b.requestBody,
		ResponseStatus:  b.responseStatus,
		ResponseHeaders: b.responseHeaders,
		ResponseBody:    b.responseBody,
		DurationMS:      time.Since(b.start).Milliseconds(),
	}
}

// captureBody applies the truncation limit and binary-content heuristic:
// a recognized binary content-type hint, or at least 10 control bytes in
// the first 1 KiB, marks the body as binary.
func captureBody(data []byte, contentTypeHint string, maxPayload int) Body {
	isBinary := looksBinary(contentTypeHint, data)

	originalSize := len(data)
	truncated := false
	if maxPayload > 0 && len(data) > maxPayload {
		data = data[:maxPayload]
		truncated = true
	}

	return Body{
		ContentType:  contentTypeHint,
		OriginalSize: originalSize,
		Data:         data,
		IsBase64:     isBinary,
		Truncated:    truncated,
	}
}

var binaryContentTypeHints = []string{
	"application/octet-stream",
	"application/pdf",
	"application/zip",
	"image/",
	"audio/",
	"video/",
	"font/",
}

func looksBinary(contentTypeHint string, data []byte) bool {
	lower := strings.ToLower(contentTypeHint)
	for _, hint := range binaryContentTypeHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}

	limit := len(data)
	if limit > 1024 {
		limit = 1024
	}
	controlBytes := 0
	for _, b := range data[:limit] {
		if b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		if b < 0x20 {
			controlBytes++
		}
	}
	return controlBytes >= 10
}

// Save acquires one of savePermits write permits, blocking callers
// instead of letting an unbounded backlog build up, and writes ex as a
// JSON file under the configured directory. Save failures are logged and
// never propagated to the request path; callers should invoke it from a
// separate goroutine.
func (c *Capturer) Save(ex Exchange) error {
	s := c.snapshot()
	if s.Directory == "" {
		return fmt.Errorf("capture: no directory configured")
	}

	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	if err := os.MkdirAll(s.Directory, 0o750); err != nil {
		c.logger.Warn("capture: failed to create directory", "dir", s.Directory, "error", err)
		return err
	}

	path := filepath.Join(s.Directory, fileName(ex))
	data, err := json.Marshal(ex)
	if err != nil {
		c.logger.Warn("capture: failed to marshal exchange", "id", ex.ID, "error", err)
		return err
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		c.logger.Warn("capture: failed to write exchange", "path", path, "error", err)
		return err
	}
	return nil
}

// fileName builds "{ISO-date}_{ISO-time}_{conn_id:06}_{sanitized service_method}.json".
func fileName(ex Exchange) string {
	date := ex.Time.Format("2006-01-02")
	clock := ex.Time.Format("150405")
	return fmt.Sprintf("%s_%s_%s_%s.json", date, clock, zeroPad(ex.ConnID, 6), sanitize(ex.Method))
}

func zeroPad(n uint64, width int) string {
	s := strconv.FormatUint(n, 10)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func sanitize(s string) string {
	s = strings.Trim(s, "/")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
