package server

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"siphon/pkg/events"
	"siphon/pkg/telemetry/logging"
)

// trackedConn wraps a net.Conn so handleConnection can block until the
// HTTP server built into the standard library has actually finished with
// it, since http.Server.Serve over a one-shot listener returns as soon as
// it has accepted that single connection, not when serving it ends.
type trackedConn struct {
	net.Conn
	connID uint64

	closeOnce sync.Once
	closed    chan struct{}
}

func newTrackedConn(conn net.Conn, connID uint64) *trackedConn {
	return &trackedConn{Conn: conn, connID: connID, closed: make(chan struct{})}
}

func (c *trackedConn) Close() error {
	err := c.Conn.Close()
	c.closeOnce.Do(func() { close(c.closed) })
	return err
}

// connContextWithID is installed as http.Server.ConnContext so every
// request's context carries the connection id the accept loop assigned,
// the same way http2.ServeConnOpts.Context does for the HTTP/2 path.
func connContextWithID(ctx context.Context, c net.Conn) context.Context {
	if tc, ok := c.(*trackedConn); ok {
		return logging.WithConnID(ctx, tc.connID)
	}
	return ctx
}

// onceListener is a net.Listener that yields a single, already-accepted
// connection and then blocks (rather than erroring) on further Accept
// calls, so it never causes http.Server.Serve to spin or exit early; the
// server instead notices this one connection closing via trackedConn.
type onceListener struct {
	conn     net.Conn
	accepted bool
	mu       sync.Mutex
	done     chan struct{}
}

func newOnceListener(conn net.Conn) *onceListener {
	return &onceListener{conn: conn, done: make(chan struct{})}
}

func (l *onceListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if !l.accepted {
		l.accepted = true
		l.mu.Unlock()
		return l.conn, nil
	}
	l.mu.Unlock()
	<-l.done
	return nil, net.ErrClosed
}

func (l *onceListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.done:
	default:
		close(l.done)
	}
	return nil
}

func (l *onceListener) Addr() net.Addr { return l.conn.LocalAddr() }

// handleConnection performs the TLS handshake with a per-SNI leaf
// certificate, dispatches to the HTTP/2 or HTTP/1.1 serving path based on
// the negotiated ALPN protocol, and emits the connection-level events.
func (s *Server) handleConnection(ctx context.Context, raw net.Conn, connID uint64, tlsConfig *tls.Config) {
	peerAddr := raw.RemoteAddr().String()
	opened := time.Now()
	s.broadcast.Publish(events.ConnOpened(connID, peerAddr, opened))
	s.collector.RecordConnectionOpened()

	defer func() {
		duration := time.Since(opened)
		s.broadcast.Publish(events.ConnClosed(connID, time.Now(), duration))
		s.collector.RecordConnectionClosed(duration)
	}()

	tlsConn := tls.Server(raw, tlsConfig)
	defer tlsConn.Close()

	hctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	err := tlsConn.HandshakeContext(hctx)
	cancel()
	if err != nil {
		s.logger.Warn("client TLS handshake failed", "conn_id", connID, "peer", peerAddr, "error", err)
		return
	}

	connCtx := logging.WithConnID(ctx, connID)

	switch tlsConn.ConnectionState().NegotiatedProtocol {
	case "h2":
		s.http2Server.ServeConn(tlsConn, &http2.ServeConnOpts{
			Context:    connCtx,
			Handler:    s.handler,
			BaseConfig: s.baseHTTP,
		})
	default:
		s.serveHTTP1(connCtx, tlsConn, connID)
	}
}

// serveHTTP1 hands one TLS connection negotiated as http/1.1 to the
// shared http.Server via a single-connection listener, blocking until the
// connection actually closes.
func (s *Server) serveHTTP1(ctx context.Context, conn net.Conn, connID uint64) {
	tc := newTrackedConn(conn, connID)
	ln := newOnceListener(tc)

	go func() {
		if err := s.baseHTTP.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("http/1.1 connection serve error", "conn_id", connID, "error", err)
		}
	}()

	<-tc.closed
	_ = ln.Close()
}
