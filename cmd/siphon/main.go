// Siphon is an intercepting TLS proxy that sits between a locally
// installed AI coding assistant and its backend, terminating TLS with
// a locally-trusted certificate authority and rewriting eligible
// Connect-Protocol requests in flight.
//
// It provides:
//   - Per-SNI leaf certificate minting from a persistent local root
//   - Live system-prompt and context-file injection into chat requests
//   - Optional on-disk capture of matched request/response exchanges
//   - Prometheus metrics and an in-process event feed for observability
//
// Usage:
//
//	# Start the proxy with default configuration
//	siphon run
//
//	# Start with a custom configuration file
//	siphon run --config /path/to/config.yaml
//
//	# Inspect the local certificate authority
//	siphon certs info
//
//	# Show version information
//	siphon version
package main

func main() {
	Execute()
}
