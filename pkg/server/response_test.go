package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteUpstreamError(t *testing.T) {
	w := httptest.NewRecorder()
	writeUpstreamError(w, errors.New("boom"))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	if !strings.Contains(w.Body.String(), "Upstream error: boom") {
		t.Errorf("body = %q, want it to contain the diagnostic message", w.Body.String())
	}
}

func TestStripHopByHop(t *testing.T) {
	h := http.Header{}
	h.Set("Connection", "keep-alive")
	h.Set("Transfer-Encoding", "chunked")
	h.Set("Content-Type", "application/json")

	stripHopByHop(h)

	if h.Get("Connection") != "" || h.Get("Transfer-Encoding") != "" {
		t.Error("expected hop-by-hop headers to be stripped")
	}
	if h.Get("Content-Type") != "application/json" {
		t.Error("expected non-hop-by-hop header to survive")
	}
}
