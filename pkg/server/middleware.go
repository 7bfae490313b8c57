package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"runtime/debug"

	"siphon/pkg/telemetry/logging"
)

// generateRequestID returns a 16-byte hex identifier for correlating one
// request's events, logs, and capture record.
func generateRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "unidentified-request"
	}
	return hex.EncodeToString(b)
}

// recoveryMiddleware recovers from a panic in next, logs it with a stack
// trace, and answers with a synthesized 502 instead of letting the
// connection's goroutine die mid-response.
func recoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic in request handler",
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					writeUpstreamError(w, &HeaderError{Op: "handler panic", Err: fmt.Errorf("%v", rec)})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestIDMiddleware attaches a freshly generated request id to the
// request's context, for every downstream log line, event, and capture
// record to carry.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), generateRequestID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
