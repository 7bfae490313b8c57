package upstream

import "fmt"

// ConnectError wraps a failure to establish a new upstream connection: DNS
// resolution, TCP connect, or the TLS/HTTP2 handshake. Per the proxy's
// error policy it is retried at most once (after evicting the broken pool
// entry) before surfacing as a 502 to the client.
type ConnectError struct {
	Host string
	Port int
	Op   string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("upstream: %s:%d: %s: %v", e.Host, e.Port, e.Op, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ProtocolError wraps an HTTP/2 transport-level failure on an otherwise
// established session (broken stream, reset without a status line). It is
// retried at most once; an actual HTTP response, including 5xx, is never
// wrapped here.
type ProtocolError struct {
	Host string
	Port int
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("upstream: %s:%d: protocol error: %v", e.Host, e.Port, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
