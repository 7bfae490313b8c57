// Package telemetry groups siphon's observability subpackages: logging,
// metrics, tracing, and health.
//
// # Components
//
//   - logging: structured slog-based logging with connection/request ID
//     injection
//   - metrics: Prometheus collectors for request, injection, and capture
//     activity
//   - tracing: OpenTelemetry span helpers
//   - health: liveness/readiness/version HTTP endpoints
//
// Each subpackage is constructed independently in cmd/siphon/run.go and
// wired into pkg/server.Server; there is no umbrella constructor here.
//
//	logger, _ := logging.New(logging.Config{Level: cfg.Telemetry.Logging.Level})
//	collector := metrics.NewCollector(metrics.Config{Namespace: cfg.Telemetry.Metrics.Namespace}, nil)
//	tracer, _ := tracing.New(&tracing.Config{ServiceName: cfg.Telemetry.Tracing.ServiceName})
//	checker := health.New(5 * time.Second)
package telemetry
