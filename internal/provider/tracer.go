package provider

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gxo-labs/weft/internal/metrics"
	"github.com/gxo-labs/weft/internal/sampler"
	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// defaultTracer is the functional tracer handle stamped from the coordinator's
// template. It consults the shared sampler and id generator, drives the
// composed hook chains, and attaches span contexts to the request context so
// children and log records correlate.
type defaultTracer struct {
	template *tracerTemplate
	scope    wefttrace.InstrumentationScope
	metrics  *metrics.CoordinatorMetrics
}

var _ wefttrace.Tracer = (*defaultTracer)(nil)

// Start implements wefttrace.Tracer.
func (t *defaultTracer) Start(ctx context.Context, spanName string, opts ...wefttrace.SpanStartOption) (context.Context, wefttrace.SpanHandle) {
	cfg := wefttrace.NewSpanStartConfig(opts...)
	parent := oteltrace.SpanContextFromContext(ctx)

	var tid oteltrace.TraceID
	var sid oteltrace.SpanID
	if parent.IsValid() {
		tid = parent.TraceID()
		sid = t.template.idGen.NewSpanID(tid)
	} else {
		tid, sid = t.template.idGen.NewIDs()
	}

	decision := t.template.sampler.ShouldSample(sampler.Parameters{
		Parent:  parent,
		TraceID: tid,
		Name:    spanName,
	})

	var flags oteltrace.TraceFlags
	if decision == sampler.RecordAndSample {
		flags = oteltrace.FlagsSampled
	}
	sc := oteltrace.NewSpanContext(oteltrace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: flags,
		TraceState: parent.TraceState(),
	})
	ctx = oteltrace.ContextWithSpanContext(ctx, sc)

	if decision != sampler.RecordAndSample {
		// Dropped spans still propagate their context so descendants inherit
		// the trace and the negative decision, but processors never see them.
		return ctx, &droppedSpan{sc: sc}
	}

	value := wefttrace.Span{
		Name:        spanName,
		SpanContext: sc,
		Parent:      parent,
		Scope:       t.scope,
		Resource:    t.template.res,
		Attributes:  cfg.Attributes(),
		StartTime:   time.Now(),
	}
	value = t.template.onStart(ctx, value)
	t.metrics.IncSpansStarted()

	return ctx, &recordingSpan{value: value, onEnd: t.template.onEnd, metrics: t.metrics}
}

// recordingSpan is the live handle of a sampled span. End drives the on-end
// chain exactly once; later mutations and End calls are no-ops.
type recordingSpan struct {
	mu      sync.Mutex
	value   wefttrace.Span
	onEnd   endHook
	metrics *metrics.CoordinatorMetrics
	ended   bool
}

var _ wefttrace.SpanHandle = (*recordingSpan)(nil)

func (s *recordingSpan) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.value.EndTime = time.Now()
	value := s.value
	s.mu.Unlock()

	// The chain runs outside the lock: a processor callback must not be able
	// to deadlock the handle.
	s.onEnd(value)
	s.metrics.IncSpansEnded()
}

func (s *recordingSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.value.Attributes = append(s.value.Attributes, attrs...)
}

func (s *recordingSpan) SetStatus(code codes.Code, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.value.StatusCode = code
	s.value.StatusDescription = description
}

func (s *recordingSpan) SpanContext() oteltrace.SpanContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value.SpanContext
}

func (s *recordingSpan) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ended
}

// droppedSpan is the handle of a span the sampler declined to record. It keeps
// its span context for propagation but never reaches the processors.
type droppedSpan struct {
	sc oteltrace.SpanContext
}

var _ wefttrace.SpanHandle = (*droppedSpan)(nil)

func (s *droppedSpan) End() {}

func (s *droppedSpan) SetAttributes(...attribute.KeyValue) {}

func (s *droppedSpan) SetStatus(codes.Code, string) {}

func (s *droppedSpan) SpanContext() oteltrace.SpanContext { return s.sc }

func (s *droppedSpan) IsRecording() bool { return false }

// noopTracer is the inert tracer implementation handed out for deny-listed
// scopes, degraded coordinators and stopped coordinators. It allocates no ids
// and never touches the processors.
type noopTracer struct{}

var theNoopTracer = noopTracer{}

var _ wefttrace.Tracer = noopTracer{}

func (noopTracer) Start(ctx context.Context, _ string, _ ...wefttrace.SpanStartOption) (context.Context, wefttrace.SpanHandle) {
	return ctx, &droppedSpan{}
}
