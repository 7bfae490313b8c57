// Package logging wraps log/slog with the proxy's conventions: a parsed
// level/format pair at construction, and context-aware helpers that pick
// up conn_id, request_id, and component fields automatically.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	ctx := logging.WithConnID(context.Background(), connID)
//	logger.InfoContext(ctx, "connection opened", "peer_addr", addr)
package logging
