package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"siphon/pkg/telemetry/logging"
)

func TestRequestIDMiddlewareAttachesID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetRequestID(r.Context())
	})

	wrapped := requestIDMiddleware(next)
	req := httptest.NewRequest(http.MethodPost, "/aiserver.v1.ChatService/StreamUnifiedChat", nil)
	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	if seen == "" {
		t.Fatal("expected a request id to be attached to the context")
	}
}

func TestRecoveryMiddlewareRecoversPanic(t *testing.T) {
	logger, err := logging.New(logging.Config{Level: "error", Format: "json"})
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}

	panics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	wrapped := recoveryMiddleware(logger)(panics)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)

	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status after panic = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

func TestGenerateRequestIDIsUnique(t *testing.T) {
	a := generateRequestID()
	b := generateRequestID()
	if a == b {
		t.Error("expected two generated request ids to differ")
	}
	if len(a) != 32 {
		t.Errorf("len(requestID) = %d, want 32 hex characters", len(a))
	}
}
