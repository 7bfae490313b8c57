package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// These functions set common attributes on spans using consistent
// naming across the proxy. Custom attribute keys use the "siphon.*"
// namespace.

// Common attribute keys used throughout the proxy.
const (
	AttrConnID    = "siphon.conn_id"
	AttrRequestID = "siphon.request_id"
	AttrMethod    = "siphon.method"
	AttrPath      = "siphon.path"
	AttrStatus    = "siphon.status"

	AttrPoolKey      = "siphon.pool.key"
	AttrPoolReused   = "siphon.pool.reused"
	AttrInjectionHit = "siphon.injection.modified"
	AttrCaptured     = "siphon.capture.written"

	AttrDuration = "siphon.duration_ms"

	AttrErrorType    = "siphon.error.type"
	AttrErrorMessage = "error.message"
)

// SetConnectionAttributes sets connection-identifying attributes on a span.
func SetConnectionAttributes(span trace.Span, connID uint64) {
	span.SetAttributes(attribute.Int64(AttrConnID, int64(connID)))
}

// SetRequestAttributes sets request-identifying attributes on a span.
func SetRequestAttributes(span trace.Span, requestID, method, path string) {
	attrs := []attribute.KeyValue{}
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	if method != "" {
		attrs = append(attrs, attribute.String(AttrMethod, method))
	}
	if path != "" {
		attrs = append(attrs, attribute.String(AttrPath, path))
	}
	span.SetAttributes(attrs...)
}

// SetStatusAttribute sets the proxied response status code on a span.
func SetStatusAttribute(span trace.Span, status int) {
	span.SetAttributes(attribute.Int(AttrStatus, status))
}

// SetPoolAttributes sets upstream connection pool attributes on a span.
func SetPoolAttributes(span trace.Span, key string, reused bool) {
	span.SetAttributes(
		attribute.String(AttrPoolKey, key),
		attribute.Bool(AttrPoolReused, reused),
	)
}

// SetInjectionAttribute records whether the request payload was rewritten.
func SetInjectionAttribute(span trace.Span, modified bool) {
	span.SetAttributes(attribute.Bool(AttrInjectionHit, modified))
}

// SetCaptureAttribute records whether the exchange was written to disk.
func SetCaptureAttribute(span trace.Span, captured bool) {
	span.SetAttributes(attribute.Bool(AttrCaptured, captured))
}

// SetDurationAttribute sets the duration attribute on a span, in milliseconds.
func SetDurationAttribute(span trace.Span, durationMs int64) {
	span.SetAttributes(attribute.Int64(AttrDuration, durationMs))
}

// SetErrorAttributes sets error-related attributes on a span, records the
// error, and sets the span status to Error.
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent adds a named event to the span with optional attributes.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordException records an exception event on the span.
func RecordException(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithConnection adds the connection id attribute.
func (ab *AttributeBuilder) WithConnection(connID uint64) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.Int64(AttrConnID, int64(connID)))
	return ab
}

// WithRequest adds request-identifying attributes.
func (ab *AttributeBuilder) WithRequest(requestID, method, path string) *AttributeBuilder {
	if requestID != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrRequestID, requestID))
	}
	if method != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrMethod, method))
	}
	if path != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrPath, path))
	}
	return ab
}

// WithStatus adds the response status attribute.
func (ab *AttributeBuilder) WithStatus(status int) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.Int(AttrStatus, status))
	return ab
}

// WithPool adds upstream pool attributes.
func (ab *AttributeBuilder) WithPool(key string, reused bool) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrPoolKey, key),
		attribute.Bool(AttrPoolReused, reused),
	)
	return ab
}

// WithCustom adds a custom attribute, inferring its OTel type from value's
// Go type.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
