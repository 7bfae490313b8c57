package upstream

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/http2"
)

const (
	// maxEntries bounds the number of distinct (host, port) sessions held
	// at once. Beyond this, the least-recently-used entries are evicted.
	maxEntries = 100

	// sessionMaxAge and sessionIdleTimeout define session health: a
	// session older than sessionMaxAge, or idle longer than
	// sessionIdleTimeout, is treated as unhealthy and replaced.
	sessionMaxAge      = 5 * time.Minute
	sessionIdleTimeout = 2 * time.Minute

	// cleanupEveryRequests triggers an opportunistic sweep every N
	// requests, independent of the background ticker.
	cleanupEveryRequests = 50

	// minCleanupInterval rate-limits sweeps regardless of trigger source.
	minCleanupInterval = 10 * time.Second

	// backgroundSweepInterval is the ticker period for the idle sweep
	// goroutine started by Run.
	backgroundSweepInterval = 60 * time.Second

	connectTimeout   = 10 * time.Second
	handshakeTimeout = 10 * time.Second
)

// session is one keepalive HTTP/2 connection to a single upstream address.
type session struct {
	mu         sync.Mutex
	cc         *http2.ClientConn
	conn       net.Conn
	createdAt  time.Time
	lastUsedAt time.Time
}

func (s *session) healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	return now.Sub(s.createdAt) < sessionMaxAge &&
		now.Sub(s.lastUsedAt) < sessionIdleTimeout &&
		s.cc.CanTakeNewRequest()
}

func (s *session) touch() {
	s.mu.Lock()
	s.lastUsedAt = time.Now()
	s.mu.Unlock()
}

func (s *session) close() {
	s.conn.Close()
}

// slot serializes connection attempts for a single (host, port) so two
// concurrent requests to the same upstream never race to dial twice.
type slot struct {
	mu      sync.Mutex
	session *session
}

// Pool maintains one HTTP/2 session per (host, port) pair and forwards
// requests over it, dialing fresh sessions on demand and evicting stale
// ones in the background.
type Pool struct {
	mu    sync.Mutex
	slots map[string]*slot

	resolver  *Resolver
	transport *http2.Transport

	requestCount uint64

	cleanupMu   sync.Mutex
	lastCleanup time.Time
}

// NewPool returns an empty pool. The caller should run p.Run(ctx) in a
// goroutine to enable the background sweep.
func NewPool(resolver *Resolver) *Pool {
	return &Pool{
		slots:    make(map[string]*slot),
		resolver: resolver,
		transport: &http2.Transport{
			AllowHTTP: false,
		},
	}
}

func poolKey(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Send forwards req to host:port, reusing a pooled session when healthy.
// A transport-level failure is retried exactly once against a freshly
// dialed session; an HTTP response (including a 5xx status) is returned
// as-is and never retried.
func (p *Pool) Send(ctx context.Context, host string, port int, req *http.Request) (*http.Response, error) {
	key := poolKey(host, port)
	sl := p.acquireSlot(key)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.session == nil || !sl.session.healthy() {
		if sl.session != nil {
			sl.session.close()
		}
		sess, err := p.dial(ctx, host, port)
		if err != nil {
			sess, err = p.dial(ctx, host, port)
		}
		if err != nil {
			return nil, err
		}
		sl.session = sess
	}

	resp, err := sl.session.cc.RoundTrip(req)
	if err != nil {
		sl.session.close()
		sess, derr := p.dial(ctx, host, port)
		if derr != nil {
			sl.session = nil
			return nil, derr
		}
		sl.session = sess
		resp, err = sess.cc.RoundTrip(req)
		if err != nil {
			return nil, &ProtocolError{Host: host, Port: port, Err: err}
		}
	}

	sl.session.touch()
	p.afterRequest()
	return resp, nil
}

func (p *Pool) acquireSlot(key string) *slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	sl, ok := p.slots[key]
	if !ok {
		sl = &slot{}
		p.slots[key] = sl
	}
	return sl
}

func (p *Pool) dial(ctx context.Context, host string, port int) (*session, error) {
	addrs, err := p.resolver.Resolve(ctx, host)
	if err != nil {
		return nil, &ConnectError{Host: host, Port: port, Op: "resolve", Err: err}
	}

	var lastErr error
	for _, addr := range addrs {
		sess, err := p.connectTo(ctx, host, addr, port)
		if err == nil {
			return sess, nil
		}
		lastErr = err
	}
	return nil, &ConnectError{Host: host, Port: port, Op: "connect", Err: lastErr}
}

func (p *Pool) connectTo(ctx context.Context, sni, addr string, port int) (*session, error) {
	dialer := &net.Dialer{Timeout: connectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}

	tlsConn := tls.Client(rawConn, &tls.Config{
		ServerName: sni,
		NextProtos: []string{"h2"},
	})

	hctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	if err := tlsConn.HandshakeContext(hctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	if tlsConn.ConnectionState().NegotiatedProtocol != "h2" {
		tlsConn.Close()
		return nil, fmt.Errorf("upstream did not negotiate h2 via ALPN")
	}

	cc, err := p.transport.NewClientConn(tlsConn)
	if err != nil {
		tlsConn.Close()
		return nil, err
	}

	now := time.Now()
	return &session{cc: cc, conn: tlsConn, createdAt: now, lastUsedAt: now}, nil
}

// afterRequest triggers an opportunistic cleanup sweep every
// cleanupEveryRequests requests, subject to the shared minimum interval.
func (p *Pool) afterRequest() {
	n := atomic.AddUint64(&p.requestCount, 1)
	if n%cleanupEveryRequests == 0 {
		p.cleanup()
	}
}

// Run drives the background sweep until ctx is canceled.
func (p *Pool) Run(ctx context.Context) {
	ticker := time.NewTicker(backgroundSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanup()
		}
	}
}

// cleanup evicts unhealthy sessions and, if the pool still exceeds
// maxEntries, the least-recently-used survivors. It is a no-op if called
// within minCleanupInterval of its last run.
func (p *Pool) cleanup() {
	p.cleanupMu.Lock()
	if time.Since(p.lastCleanup) < minCleanupInterval {
		p.cleanupMu.Unlock()
		return
	}
	p.lastCleanup = time.Now()
	p.cleanupMu.Unlock()

	p.mu.Lock()
	type candidate struct {
		key string
		sl  *slot
	}
	candidates := make([]candidate, 0, len(p.slots))
	for k, sl := range p.slots {
		candidates = append(candidates, candidate{k, sl})
	}
	p.mu.Unlock()

	var live []candidate
	for _, c := range candidates {
		c.sl.mu.Lock()
		if c.sl.session != nil && !c.sl.session.healthy() {
			c.sl.session.close()
			c.sl.session = nil
		}
		if c.sl.session == nil {
			c.sl.mu.Unlock()
			p.mu.Lock()
			delete(p.slots, c.key)
			p.mu.Unlock()
			continue
		}
		c.sl.mu.Unlock()
		live = append(live, c)
	}

	if len(live) <= maxEntries {
		return
	}

	sort.Slice(live, func(i, j int) bool {
		live[i].sl.mu.Lock()
		ti := live[i].sl.session.lastUsedAt
		live[i].sl.mu.Unlock()
		live[j].sl.mu.Lock()
		tj := live[j].sl.session.lastUsedAt
		live[j].sl.mu.Unlock()
		return ti.Before(tj)
	})

	excess := len(live) - maxEntries
	p.mu.Lock()
	for _, c := range live[:excess] {
		c.sl.mu.Lock()
		if c.sl.session != nil {
			c.sl.session.close()
			c.sl.session = nil
		}
		c.sl.mu.Unlock()
		delete(p.slots, c.key)
	}
	p.mu.Unlock()
}

// Stats reports the current number of pooled sessions.
func (p *Pool) Stats() (entries int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

// Clear closes every pooled session. Used during shutdown.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, sl := range p.slots {
		sl.mu.Lock()
		if sl.session != nil {
			sl.session.close()
		}
		sl.mu.Unlock()
		delete(p.slots, key)
	}
}
