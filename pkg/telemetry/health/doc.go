// Package health provides liveness, readiness, and version HTTP endpoints
// for the proxy process.
//
// # Overview
//
// The health package implements liveness and readiness probes for
// orchestration systems (Kubernetes or otherwise), along with a version
// information endpoint. It provides a small framework for checking the
// health of the proxy's own components: the certificate authority, the
// upstream pool, and the capture directory.
//
// # Endpoints
//
// The package provides three main endpoints, mounted by cmd/siphon
// alongside the Prometheus metrics endpoint:
//
//   - /healthz: Liveness probe - indicates if the process is running
//   - /readyz: Readiness probe - indicates if the proxy can serve traffic
//   - /version: Build information - version, commit, build time
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//
//	checker.RegisterCheck("ca", func(ctx context.Context) error {
//	    if authority == nil {
//	        return errors.New("certificate authority not loaded")
//	    }
//	    return nil
//	})
//
//	mux := http.NewServeMux()
//	health.HTTPMiddleware(mux, checker, siphonVersion, gitCommit, buildDate)
//
// # Liveness vs Readiness
//
// **Liveness Probe** (/healthz):
//   - Indicates if the process is alive and running
//   - Returns 200 OK if the process is alive
//   - Fast check (<10ms)
//
// **Readiness Probe** (/readyz):
//   - Indicates if the proxy can serve traffic
//   - Checks all registered component health checks
//   - Returns 200 OK if all components are healthy, 503 otherwise
//
// # Component Health Checks
//
// cmd/siphon registers one check per long-lived dependency the proxy
// needs before it can usefully accept connections:
//
//   - ca: the local certificate authority loaded or generated successfully
//   - upstream: the configured upstream host resolves
//   - capture: the capture directory exists and is a directory, if
//     capture is enabled
//
// # Example Response
//
// Liveness response (/healthz):
//
//	{
//	    "status": "ok",
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
//
// Readiness response (/readyz):
//
//	{
//	    "status": "ready",
//	    "checks": {
//	        "ca": {"status": "ok"},
//	        "upstream": {"status": "ok"},
//	        "capture": {"status": "ok"}
//	    },
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
//
// Version response (/version):
//
//	{
//	    "version": "0.1.0",
//	    "commit": "abc123def456",
//	    "build_time": "2025-11-20T00:00:00Z",
//	    "go_version": "go1.25.0"
//	}
package health
