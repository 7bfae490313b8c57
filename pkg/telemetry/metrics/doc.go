// Package metrics provides Prometheus metrics collection for the
// intercepting proxy.
//
// # Overview
//
// The collector tracks connection lifecycle counts, upstream pool size
// and eviction activity, request outcomes by status, and the injection
// and capture subsystems' own counters. It is designed for minimal
// overhead: pre-allocated metric instances, no per-request allocation
// beyond label matching.
//
// # Usage
//
//	collector := metrics.NewCollector(metrics.Config{Namespace: "siphon"}, nil)
//	collector.RecordConnectionOpened()
//	collector.RecordRequest("200", time.Second)
//	http.Handle("/metrics", collector.Handler())
//
// # Prometheus Endpoint
//
// All metrics are exposed in standard Prometheus format:
//
//	# HELP siphon_requests_total Total number of proxied requests by response status.
//	# TYPE siphon_requests_total counter
//	siphon_requests_total{status="200"} 1234
package metrics
