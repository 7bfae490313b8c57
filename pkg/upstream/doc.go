// Package upstream maintains one keepalive HTTP/2 session per (host, port)
// and forwards requests over it, retrying exactly once after discarding a
// broken session. A background sweep evicts unhealthy or excess entries so
// the pool never grows without bound.
package upstream
