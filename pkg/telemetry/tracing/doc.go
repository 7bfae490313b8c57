// Package tracing provides OpenTelemetry distributed tracing for the proxy.
//
// # Overview
//
// The tracing package implements W3C Trace Context propagation, span
// creation, and trace export to an OTLP collector. It provides visibility
// into a connection's lifecycle and the requests multiplexed over it.
//
// # Sampling Strategies
//
// Three sampling strategies are supported:
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces (tracing disabled)
//   - ratio: Sample a percentage of traces (production)
//
// # Usage
//
//	cfg := &tracing.Config{
//	    Enabled:     true,
//	    Sampler:     "ratio",
//	    SampleRatio: 0.1,
//	    Exporter:    "otlp",
//	    Endpoint:    "localhost:4317",
//	    ServiceName: "siphon",
//	}
//	tracer, err := tracing.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "proxy.request")
//	defer span.End()
//	tracing.SetRequestAttributes(span, requestID, method, path)
//
// # HTTP Integration
//
// Extract trace context from incoming HTTP requests:
//
//	ctx := tracing.Extract(r.Context(), r.Header)
//	ctx, span := tracer.Start(ctx, "handle_request")
//	defer span.End()
//
// # Trace Exporters
//
// OTLP is the only implemented exporter; Jaeger and Zipkin are accepted
// as config values but return an error until wired up.
package tracing
