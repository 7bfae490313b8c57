// Package server binds the proxy's listening socket, the certificate
// authority, the upstream pool, the injection engine, and the capturer
// into one running process.
//
// # Connection lifecycle
//
// Each accepted TCP connection gets a unique id, a per-SNI leaf
// certificate minted on the fly by pkg/ca, and is then dispatched to
// either an HTTP/2 (golang.org/x/net/http2) or HTTP/1.1 (net/http)
// serving path based on the ALPN protocol the TLS handshake negotiated.
// Connection- and request-level lifecycle events are published on a
// shared pkg/events.Broadcaster and recorded on a pkg/telemetry/metrics
// Collector.
//
// # Error policy
//
// A failure during the TLS handshake or certificate minting closes the
// one affected connection and is logged; it never brings down the
// listener. A failure forwarding a request to the upstream (connect or
// protocol) is retried once by the pool and, failing that, answered with
// a synthesized 502 response carrying a short diagnostic body. A request
// whose headers cannot be translated gets the same 502 without reaching
// the pool. Injection and capture failures are handled
// entirely inside their own packages and never surface to the client:
// the proxy always prefers delivering the client's bytes unmodified over
// breaking the request.
//
// # Maintenance
//
// Start launches the upstream pool's own 60-second sweep goroutine and a
// github.com/robfig/cron/v3 entry on the same cadence that prunes aged
// capture files, independent of the capturer's own daily retention
// schedule.
package server
