package tracing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/id"
)

// Propagation headers
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

const spanBuffer = 1000

// TraceID identifies one request across services
type TraceID string

// SpanID identifies one operation within a trace
type SpanID string

type spanContext struct {
	trace TraceID
	span  SpanID
}

type contextKey struct{}

func fromContext(ctx context.Context) spanContext {
	sc, _ := ctx.Value(contextKey{}).(spanContext)
	return sc
}

// ContextWithRemote continues a trace started by a caller. Empty IDs are
// ignored.
func ContextWithRemote(ctx context.Context, traceID TraceID, parentID SpanID) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, spanContext{trace: traceID, span: parentID})
}

// Span is one timed operation. End it exactly once.
type Span struct {
	TraceID    TraceID
	SpanID     SpanID
	ParentID   SpanID
	Name       string
	Service    string
	StartTime  time.Time
	Duration   time.Duration
	StatusCode int
	Err        error

	fields []zap.Field
	tracer *Tracer
	once   sync.Once
}

// SetTag attaches a string attribute
func (s *Span) SetTag(key, value string) {
	s.fields = append(s.fields, zap.String(key, value))
}

// SetStatus records the HTTP status of the operation
func (s *Span) SetStatus(code int) {
	s.StatusCode = code
}

// SetError marks the span failed
func (s *Span) SetError(err error) {
	s.Err = err
}

// End stamps the duration and hands the span to the collector
func (s *Span) End() {
	s.once.Do(func() {
		s.Duration = time.Since(s.StartTime)
		s.tracer.submit(s)
	})
}

// Tracer creates spans and logs them from a background collector
type Tracer struct {
	service string
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	spans  chan *Span
	done   chan struct{}
}

// New creates a tracer and starts its collector
func New(service string, logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		service: service,
		logger:  logger,
		spans:   make(chan *Span, spanBuffer),
		done:    make(chan struct{}),
	}
	go t.collect()
	return t
}

// Start opens a span that continues the trace in ctx, or a new trace
func (t *Tracer) Start(ctx context.Context, name string) (*Span, context.Context) {
	parent := fromContext(ctx)
	traceID := parent.trace
	if traceID == "" {
		traceID = TraceID(id.NewTraceID())
	}

	span := &Span{
		TraceID:   traceID,
		SpanID:    SpanID(id.NewSpanID()),
		ParentID:  parent.span,
		Name:      name,
		Service:   t.service,
		StartTime: time.Now(),
		tracer:    t,
	}
	return span, context.WithValue(ctx, contextKey{}, spanContext{trace: traceID, span: span.SpanID})
}

func (t *Tracer) submit(span *Span) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("Span buffer full, dropping span",
			zap.String("trace_id", string(span.TraceID)),
			zap.String("operation", span.Name))
	}
}

func (t *Tracer) collect() {
	defer close(t.done)
	for span := range t.spans {
		t.log(span)
	}
}

func (t *Tracer) log(span *Span) {
	fields := make([]zap.Field, 0, len(span.fields)+7)
	fields = append(fields,
		zap.String("service", span.Service),
		zap.String("trace_id", string(span.TraceID)),
		zap.String("span_id", string(span.SpanID)),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
	)
	if span.StatusCode != 0 {
		fields = append(fields, zap.Int("status", span.StatusCode))
	}
	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(span.ParentID)))
	}
	fields = append(fields, span.fields...)

	if span.Err != nil || span.StatusCode >= 500 {
		if span.Err != nil {
			fields = append(fields, zap.Error(span.Err))
		}
		t.logger.Warn("Span completed with error", fields...)
		return
	}
	t.logger.Debug("Span completed", fields...)
}

// Close drains buffered spans and stops the collector. Spans ended
// afterwards are dropped.
func (t *Tracer) Close() {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.spans)
	}
	t.mu.Unlock()
	<-t.done
}

// ExtractTraceContext reads propagation headers
func ExtractTraceContext(headers map[string]string) (TraceID, SpanID) {
	return TraceID(headers[HeaderTraceID]), SpanID(headers[HeaderSpanID])
}

// InjectTraceContext writes the trace context carried by ctx into headers
func InjectTraceContext(ctx context.Context, headers map[string]string) {
	sc := fromContext(ctx)
	if sc.trace != "" {
		headers[HeaderTraceID] = string(sc.trace)
	}
	if sc.span != "" {
		headers[HeaderSpanID] = string(sc.span)
	}
}

// GetTraceID returns the trace ID carried by ctx
func GetTraceID(ctx context.Context) TraceID {
	return fromContext(ctx).trace
}

// Fields returns the trace context as log fields
func Fields(ctx context.Context) []zap.Field {
	sc := fromContext(ctx)
	var fields []zap.Field
	if sc.trace != "" {
		fields = append(fields, zap.String("trace_id", string(sc.trace)))
	}
	if sc.span != "" {
		fields = append(fields, zap.String("span_id", string(sc.span)))
	}
	return fields
}
