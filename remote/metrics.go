package remote

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	requestSpanName  = "remote.request"
	requestEventName = "remote.request.metrics"
)

// requestMetrics gathers per-request timings and emits one observability
// event when the request finishes, alongside an otel span.
type requestMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time

	method        string
	path          string
	roundTrip     time.Duration
	decodeLatency time.Duration
	errorStage    string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, path string) (*requestMetrics, context.Context) {
	tracer := otel.Tracer("boardsync/remote")
	ctx, span := tracer.Start(ctx, requestSpanName, trace.WithSpanKind(trace.SpanKindClient))
	return &requestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
		method: method,
		path:   path,
	}, ctx
}

func (m *requestMetrics) ObserveRoundTrip(d time.Duration) {
	if d <= 0 {
		return
	}
	m.roundTrip = d
}

func (m *requestMetrics) ObserveDecode(d time.Duration) {
	if d <= 0 {
		return
	}
	m.decodeLatency = d
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("http.method", m.method),
		attribute.String("http.route", m.path),
		attribute.Float64("boardsync.remote.total_ms", durationToMillis(time.Since(m.start))),
	}
	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}
	if m.roundTrip > 0 {
		attrs = append(attrs, attribute.Float64("boardsync.remote.roundtrip_ms", durationToMillis(m.roundTrip)))
	}
	if m.decodeLatency > 0 {
		attrs = append(attrs, attribute.Float64("boardsync.remote.decode_ms", durationToMillis(m.decodeLatency)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("boardsync.remote.error_stage", m.errorStage))
	}

	m.span.SetAttributes(attrs...)
	if err != nil {
		m.span.RecordError(err)
		m.span.SetStatus(codes.Error, err.Error())
	} else {
		m.span.SetStatus(codes.Ok, "")
	}
	m.span.End()

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"method":   m.method,
		"route":    m.path,
		"status":   status,
		"total_ms": durationToMillis(time.Since(m.start)),
	}
	if m.roundTrip > 0 {
		fields["roundtrip_ms"] = durationToMillis(m.roundTrip)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Debug(requestEventName)
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
