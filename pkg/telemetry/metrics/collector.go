package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config configures the metric namespace/subsystem and histogram
// buckets. Namespace defaults to "siphon" if unset.
type Config struct {
	Namespace string
	Subsystem string

	// RequestDurationBuckets overrides the default request-latency
	// histogram buckets (seconds).
	RequestDurationBuckets []float64
}

// Collector is the single owner of every metric the proxy exposes.
type Collector struct {
	registry *prometheus.Registry

	connectionsOpenedTotal prometheus.Counter
	connectionsActive      prometheus.Gauge
	connectionDuration      prometheus.Histogram

	poolSize          prometheus.Gauge
	poolEvictionsTotal prometheus.Counter
	poolDialsTotal     prometheus.Counter
	poolDialFailuresTotal prometheus.Counter

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec

	injectionModifiedTotal prometheus.Counter

	captureWritesTotal   prometheus.Counter
	captureFailuresTotal prometheus.Counter
}

// NewCollector creates and registers every proxy metric with registry.
// A nil registry uses a freshly created one.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "siphon"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	}

	c := &Collector{
		registry: registry,

		connectionsOpenedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "connections_opened_total",
			Help: "Total number of client TCP connections accepted.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "connections_active",
			Help: "Number of client connections currently open.",
		}),
		connectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name:    "connection_duration_seconds",
			Help:    "Duration of client connections from accept to close.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),

		poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "pool_sessions",
			Help: "Number of upstream HTTP/2 sessions currently pooled.",
		}),
		poolEvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "pool_evictions_total",
			Help: "Total number of pooled sessions evicted (unhealthy or over capacity).",
		}),
		poolDialsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "pool_dials_total",
			Help: "Total number of new upstream sessions dialed.",
		}),
		poolDialFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "pool_dial_failures_total",
			Help: "Total number of failed attempts to dial a new upstream session.",
		}),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "requests_total",
			Help: "Total number of proxied requests by response status.",
		}, []string{"status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name:    "request_duration_seconds",
			Help:    "Duration of proxied requests in seconds.",
			Buckets: cfg.RequestDurationBuckets,
		}, []string{"status"}),

		injectionModifiedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "injection_modified_requests_total",
			Help: "Total number of requests whose body was rewritten by the injection engine.",
		}),

		captureWritesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "capture_writes_total",
			Help: "Total number of exchange records successfully written to disk.",
		}),
		captureFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "capture_write_failures_total",
			Help: "Total number of exchange records that failed to write.",
		}),
	}

	registry.MustRegister(
		c.connectionsOpenedTotal, c.connectionsActive, c.connectionDuration,
		c.poolSize, c.poolEvictionsTotal, c.poolDialsTotal, c.poolDialFailuresTotal,
		c.requestsTotal, c.requestDuration,
		c.injectionModifiedTotal,
		c.captureWritesTotal, c.captureFailuresTotal,
	)
	return c
}

// RecordConnectionOpened increments the accepted-connection counter and
// the active-connection gauge.
func (c *Collector) RecordConnectionOpened() {
	c.connectionsOpenedTotal.Inc()
	c.connectionsActive.Inc()
}

// RecordConnectionClosed decrements the active-connection gauge and
// observes the connection's total lifetime.
func (c *Collector) RecordConnectionClosed(duration time.Duration) {
	c.connectionsActive.Dec()
	c.connectionDuration.Observe(duration.Seconds())
}

// SetPoolSize reports the current number of pooled upstream sessions.
func (c *Collector) SetPoolSize(n int) {
	c.poolSize.Set(float64(n))
}

// RecordPoolEviction increments the eviction counter.
func (c *Collector) RecordPoolEviction() {
	c.poolEvictionsTotal.Inc()
}

// RecordPoolDial records the outcome of an attempt to dial a new
// upstream session.
func (c *Collector) RecordPoolDial(ok bool) {
	c.poolDialsTotal.Inc()
	if !ok {
		c.poolDialFailuresTotal.Inc()
	}
}

// RecordRequest records one completed proxied request by its response
// status and duration.
func (c *Collector) RecordRequest(status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(status).Inc()
	c.requestDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordInjectionModified increments the injection-rewrite counter.
func (c *Collector) RecordInjectionModified() {
	c.injectionModifiedTotal.Inc()
}

// RecordCaptureWrite records the outcome of one capture save.
func (c *Collector) RecordCaptureWrite(ok bool) {
	if ok {
		c.captureWritesTotal.Inc()
		return
	}
	c.captureFailuresTotal.Inc()
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
