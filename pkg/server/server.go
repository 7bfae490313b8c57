// Package server binds the intercepting proxy's TCP listener, dispatches
// each connection's negotiated protocol to the right HTTP server, and
// drives the periodic maintenance tasks (upstream pool sweep, capture
// retention) for as long as the proxy runs.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/net/http2"

	"siphon/pkg/ca"
	"siphon/pkg/capture"
	"siphon/pkg/config"
	"siphon/pkg/events"
	"siphon/pkg/injection"
	"siphon/pkg/ratelimit"
	"siphon/pkg/telemetry/logging"
	"siphon/pkg/telemetry/metrics"
	"siphon/pkg/telemetry/tracing"
	"siphon/pkg/upstream"
)

const (
	handshakeTimeout      = 10 * time.Second
	combinedSweepSchedule = "@every 1m"
)

// Server accepts TLS connections on a single port, mints a per-SNI leaf
// certificate from its authority, and serves each connection as either
// HTTP/2 or HTTP/1.1 depending on the negotiated ALPN protocol.
type Server struct {
	cfg       config.ProxyConfig
	authority *ca.Authority

	pool      *upstream.Pool
	engine    *injection.Engine
	capturer  *capture.Capturer
	broadcast *events.Broadcaster
	collector *metrics.Collector
	logger    *logging.Logger

	handler     http.Handler
	http2Server *http2.Server
	baseHTTP    *http.Server

	sweeper *cron.Cron
	limiter *ratelimit.TokenBucket

	listener net.Listener
	nextConn atomic.Uint64

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer wires together every already-constructed component into a
// running proxy. Dependencies are expected to already be configured;
// Start takes care of starting the pool's background sweep.
func NewServer(
	cfg config.ProxyConfig,
	authority *ca.Authority,
	pool *upstream.Pool,
	engine *injection.Engine,
	capturer *capture.Capturer,
	broadcast *events.Broadcaster,
	collector *metrics.Collector,
	tracer *tracing.Tracer,
	logger *logging.Logger,
) *Server {
	s := &Server{
		cfg:          cfg,
		authority:    authority,
		pool:         pool,
		engine:       engine,
		capturer:     capturer,
		broadcast:    broadcast,
		collector:    collector,
		logger:       logger,
		http2Server:  &http2.Server{},
		shutdownChan: make(chan struct{}),
	}

	if cfg.AcceptRateLimit.Enabled {
		s.limiter = ratelimit.NewTokenBucket(int64(cfg.AcceptRateLimit.Burst), cfg.AcceptRateLimit.RequestsPerSecond)
	}

	core := newProxyHandler(cfg.UpstreamHost, cfg.UpstreamPort, pool, engine, capturer, broadcast, collector, tracer, logger)
	s.handler = recoveryMiddleware(logger)(requestIDMiddleware(core))
	s.baseHTTP = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ConnContext:  connContextWithID,
	}
	return s
}

// Start binds the listener and serves connections until ctx is canceled,
// SIGINT/SIGTERM is received, or Shutdown is called. It blocks until the
// server has fully stopped.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server: already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	listener, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.ListenAddress, err)
	}
	s.listener = listener

	s.logger.Info("proxy listening",
		"address", s.cfg.ListenAddress,
		"upstream", fmt.Sprintf("%s:%d", s.cfg.UpstreamHost, s.cfg.UpstreamPort),
	)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	go s.pool.Run(runCtx)
	s.startSweeper(runCtx)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.acceptLoop(runCtx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, shutting down proxy")
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		if err != nil {
			s.logger.Error("accept loop exited with error", "error", err)
		}
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
	}

	return s.Shutdown(context.Background())
}

// Shutdown stops accepting new connections and releases pooled upstream
// sessions, waiting up to cfg.ShutdownTimeout for the sweeper to settle.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		running := s.isRunning
		s.isRunning = false
		s.mu.Unlock()
		if !running {
			return
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()

		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				shutdownErr = fmt.Errorf("server: close listener: %w", err)
			}
		}
		if s.sweeper != nil {
			stopped := s.sweeper.Stop()
			select {
			case <-stopped.Done():
			case <-shutdownCtx.Done():
			}
		}
		s.pool.Clear()

		s.logger.Info("proxy stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is currently accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// startSweeper schedules the combined maintenance tick: the upstream
// pool's own ticker (started via pool.Run above) handles session
// eviction on a 60-second cadence, while this cron entry drives capture
// pruning on the same cadence, independent of the capturer's own daily
// retention schedule (cfg.Capture.PruneSchedule, run separately by
// capture.Scheduler at the wiring layer).
func (s *Server) startSweeper(ctx context.Context) {
	s.sweeper = cron.New()
	_, err := s.sweeper.AddFunc(combinedSweepSchedule, func() {
		if err := s.capturer.CleanupOld(); err != nil {
			s.logger.Warn("periodic capture cleanup failed", "error", err)
		}
	})
	if err != nil {
		s.logger.Error("failed to schedule periodic sweep", "error", err)
		return
	}
	s.sweeper.Start()
	go func() {
		<-ctx.Done()
		s.sweeper.Stop()
	}()
}

// acceptLoop accepts connections until the listener closes or ctx is
// canceled, spawning one handling goroutine per connection with a fresh
// connection id.
func (s *Server) acceptLoop(ctx context.Context) error {
	tlsConfig := &tls.Config{
		GetCertificate: func(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
			return s.authority.MintLeaf(hello.ServerName)
		},
		NextProtos: []string{"h2", "http/1.1"},
	}

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return nil
		}

		if s.limiter != nil && !s.limiter.Take(1) {
			s.logger.Warn("accept rate limit exceeded, rejecting connection", "remote", conn.RemoteAddr())
			conn.Close()
			continue
		}

		connID := s.nextConn.Add(1)
		go s.handleConnection(ctx, conn, connID, tlsConfig)
	}
}
