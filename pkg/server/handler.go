package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"siphon/pkg/capture"
	"siphon/pkg/connectproto"
	"siphon/pkg/events"
	"siphon/pkg/injection"
	"siphon/pkg/telemetry/logging"
	"siphon/pkg/telemetry/metrics"
	"siphon/pkg/telemetry/tracing"
	"siphon/pkg/upstream"
)

// clientVersionHeader is the fixed, case-insensitive header name
// spoof_version overwrites on the upstream request.
const clientVersionHeader = "X-Client-Version"

// proxyHandler is the http.Handler invoked for every intercepted request,
// on both the HTTP/1.1 and HTTP/2 serving paths. One instance is shared
// by every connection.
type proxyHandler struct {
	upstreamHost string
	upstreamPort int

	pool      *upstream.Pool
	engine    *injection.Engine
	capturer  *capture.Capturer
	broadcast *events.Broadcaster
	collector *metrics.Collector
	tracer    *tracing.Tracer
	logger    *logging.Logger
}

func newProxyHandler(
	upstreamHost string,
	upstreamPort int,
	pool *upstream.Pool,
	engine *injection.Engine,
	capturer *capture.Capturer,
	broadcast *events.Broadcaster,
	collector *metrics.Collector,
	tracer *tracing.Tracer,
	logger *logging.Logger,
) *proxyHandler {
	return &proxyHandler{
		upstreamHost: upstreamHost,
		upstreamPort: upstreamPort,
		pool:         pool,
		engine:       engine,
		capturer:     capturer,
		broadcast:    broadcast,
		collector:    collector,
		tracer:       tracer,
		logger:       logger,
	}
}

func (h *proxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	connID := logging.GetConnID(ctx)
	requestID := logging.GetRequestID(ctx)
	start := time.Now()
	service, method := injection.ServiceAndMethod(r.URL.Path)

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "proxy.request")
		tracing.SetConnectionAttributes(span, connID)
		tracing.SetRequestAttributes(span, requestID, r.Method, r.URL.Path)
		defer span.End()
	}

	h.broadcast.Publish(events.ReqStarted(connID, requestID, r.Method, r.URL.Path, service, method, start))

	body, err := io.ReadAll(io.LimitReader(r.Body, connectproto.MaxRequestFrame+1))
	if err != nil {
		h.failRequest(w, connID, requestID, &HeaderError{Op: "read request body", Err: err})
		return
	}

	outBody, modified := h.rewriteRequestBody(r.URL.Path, body)
	if modified {
		h.collector.RecordInjectionModified()
	}
	if span != nil {
		tracing.SetInjectionAttribute(span, modified)
	}

	outReq, err := h.buildUpstreamRequest(ctx, r, outBody)
	if err != nil {
		if span != nil {
			tracing.SetError(span, err)
		}
		h.failRequest(w, connID, requestID, &HeaderError{Op: "build upstream request", Err: err})
		return
	}

	var builder *capture.Builder
	if h.capturer != nil {
		builder = h.capturer.Begin(connID, service, method, r.URL.Path)
		if builder != nil {
			builder.CaptureRequest(toCaptureHeaders(r.Header), body, r.Header.Get("Content-Type"))
		}
	}

	resp, err := h.pool.Send(ctx, h.upstreamHost, h.upstreamPort, outReq)
	if err != nil {
		h.collector.RecordRequest("error", time.Since(start))
		if span != nil {
			tracing.SetError(span, err)
		}
		h.failRequest(w, connID, requestID, err)
		return
	}
	defer resp.Body.Close()
	if span != nil {
		tracing.SetStatusAttribute(span, resp.StatusCode)
	}

	respHeader := w.Header()
	for name, values := range resp.Header {
		for _, v := range values {
			respHeader.Add(name, v)
		}
	}
	stripHopByHop(respHeader)
	w.WriteHeader(resp.StatusCode)

	var respBody []byte
	if builder != nil {
		respBody, err = io.ReadAll(resp.Body)
		if err == nil {
			_, err = w.Write(respBody)
		}
	} else {
		_, err = io.Copy(w, resp.Body)
	}

	duration := time.Since(start)
	h.collector.RecordRequest(strconv.Itoa(resp.StatusCode), duration)

	if err != nil {
		h.logger.WarnContext(ctx, "error streaming response to client", "error", err)
		h.broadcast.Publish(events.ReqFailed(connID, requestID, err.Error(), time.Now()))
	} else {
		h.broadcast.Publish(events.ReqCompleted(connID, requestID, resp.StatusCode, duration, len(body), len(respBody), time.Now()))
	}

	if builder != nil {
		builder.CaptureResponse(resp.StatusCode, toCaptureHeaders(resp.Header), respBody, resp.Header.Get("Content-Type"))
		go h.saveCapture(builder.Finish())
	}
}

// buildUpstreamRequest constructs the request sent to the pool: same
// method, path and query and (rewritten) headers as the client sent, but
// addressed at the fixed upstream host/port and carrying outBody instead
// of the original body.
func (h *proxyHandler) buildUpstreamRequest(ctx context.Context, r *http.Request, outBody []byte) (*http.Request, error) {
	u := &url.URL{
		Scheme:   "https",
		Host:     net.JoinHostPort(h.upstreamHost, strconv.Itoa(h.upstreamPort)),
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
	outReq, err := http.NewRequestWithContext(ctx, r.Method, u.String(), io.NopCloser(bytes.NewReader(outBody)))
	if err != nil {
		return nil, err
	}
	outReq.Header = r.Header.Clone()
	stripHopByHop(outReq.Header)
	outReq.Host = h.upstreamHost
	outReq.ContentLength = int64(len(outBody))

	if headers, spoofVersion, ok := h.engine.HeaderRewrites(); ok {
		for name, value := range headers {
			outReq.Header.Set(name, value)
		}
		if spoofVersion != "" {
			outReq.Header.Set(clientVersionHeader, spoofVersion)
		}
	}
	return outReq, nil
}

// rewriteRequestBody decodes the Connect-Protocol frames in body and runs
// each through the injection engine, re-encoding the result. A decode
// failure is logged and the original bytes are returned unchanged, per
// the no-modify-on-failure rule: framing problems never block the
// request, only the rewrite.
func (h *proxyHandler) rewriteRequestBody(path string, body []byte) ([]byte, bool) {
	extractor := connectproto.NewExtractor(connectproto.MaxRequestFrame)
	frames, err := extractor.Feed(body)
	if err != nil {
		h.logger.Warn("framing error decoding request, forwarding body unchanged", "path", path, "error", err)
		return body, false
	}
	if len(frames) == 0 {
		return body, false
	}

	anyModified := false
	out := make([]byte, 0, len(body))
	for _, frame := range frames {
		rewritten, modified := h.engine.Apply(path, frame)
		if modified {
			anyModified = true
		}
		out = append(out, connectproto.Encode(rewritten.Flags, rewritten.Payload)...)
	}
	out = append(out, extractor.Residual()...)
	return out, anyModified
}

// failRequest answers a terminal transport failure with a synthesized
// 502 and emits RequestFailed; per the error policy this is the only
// case where a request's failure is visible to the client.
func (h *proxyHandler) failRequest(w http.ResponseWriter, connID uint64, requestID string, err error) {
	writeUpstreamError(w, err)
	h.broadcast.Publish(events.ReqFailed(connID, requestID, err.Error(), time.Now()))
}

func (h *proxyHandler) saveCapture(ex capture.Exchange) {
	err := h.capturer.Save(ex)
	h.collector.RecordCaptureWrite(err == nil)
	if err != nil {
		h.logger.Warn("failed to save captured exchange", "id", ex.ID, "error", err)
	}
}

func toCaptureHeaders(h http.Header) []capture.Header {
	out := make([]capture.Header, 0, len(h))
	for name, values := range h {
		for _, v := range values {
			out = append(out, capture.Header{Name: name, Value: v})
		}
	}
	return out
}
