package server

import (
	"fmt"
	"net/http"
)

// hopByHopHeaders lists the headers that must never be copied across the
// HTTP/1.1-to-HTTP/2 (or reverse) translation boundary.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func stripHopByHop(h http.Header) {
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}

// writeUpstreamError synthesizes a 502 response carrying a short
// diagnostic body. It is used for every terminal transport failure
// (upstream connect, upstream protocol, unparseable headers) so the
// client always sees a well-formed HTTP response instead
// of a reset connection.
func writeUpstreamError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	fmt.Fprintf(w, "Upstream error: %v\n", err)
}
