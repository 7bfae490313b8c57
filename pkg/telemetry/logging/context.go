package logging

import "context"

type contextKey string

const (
	// ConnIDKey is the context key for the connection id.
	ConnIDKey contextKey = "conn_id"
	// RequestIDKey is the context key for the request id.
	RequestIDKey contextKey = "request_id"
	// ComponentKey is the context key for the subsystem emitting the log
	// (e.g. "pool", "injection", "capture").
	ComponentKey contextKey = "component"
)

// WithConnID attaches a connection id to ctx.
func WithConnID(ctx context.Context, connID uint64) context.Context {
	return context.WithValue(ctx, ConnIDKey, connID)
}

// GetConnID retrieves the connection id from ctx, or 0 if absent.
func GetConnID(ctx context.Context) uint64 {
	if v, ok := ctx.Value(ConnIDKey).(uint64); ok {
		return v
	}
	return 0
}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request id from ctx, or "" if absent.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithComponent attaches a component name to ctx.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ComponentKey, component)
}

// GetComponent retrieves the component name from ctx, or "" if absent.
func GetComponent(ctx context.Context) string {
	if v, ok := ctx.Value(ComponentKey).(string); ok {
		return v
	}
	return ""
}

// extractContextFields builds the args slice for Logger.With from
// whatever of conn_id/request_id/component are set on ctx.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	if connID := GetConnID(ctx); connID != 0 {
		fields = append(fields, "conn_id", connID)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if component := GetComponent(ctx); component != "" {
		fields = append(fields, "component", component)
	}
	return fields
}
