package provider_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gxo-labs/weft/internal/config"
	"github.com/gxo-labs/weft/internal/logger"
	"github.com/gxo-labs/weft/internal/processor"
	"github.com/gxo-labs/weft/internal/provider"
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// recordingProc counts its callbacks and optionally fails flushes. All fields
// are guarded because callbacks fire from both the coordinator loop and span
// callers.
type recordingProc struct {
	mu         sync.Mutex
	tag        string
	endCalls   int
	flushCalls int
	flushErr   error
	stopCalls  int
}

func (p *recordingProc) OnStart(_ context.Context, span wefttrace.Span, _ wefttrace.ProcessorConfig) wefttrace.Span {
	if p.tag != "" {
		span.Attributes = append(span.Attributes, attribute.String("proc", p.tag))
	}
	return span
}

func (p *recordingProc) OnEnd(wefttrace.Span, wefttrace.ProcessorConfig) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endCalls++
	return true
}

func (p *recordingProc) ForceFlush(wefttrace.ProcessorConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushCalls++
	return p.flushErr
}

func (p *recordingProc) counts() (ends, flushes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.endCalls, p.flushCalls
}

// startableProc wraps recordingProc with a startup routine that may panic.
type startableProc struct {
	*recordingProc
	startupPanic bool
}

func (p *startableProc) Startup(cfg wefttrace.ProcessorConfig) (wefttrace.ProcessorConfig, error) {
	if p.startupPanic {
		panic("broken backend client")
	}
	return cfg, nil
}

// stoppableProc wraps recordingProc with a shutdown routine.
type stoppableProc struct {
	*recordingProc
}

func (p *stoppableProc) Shutdown(context.Context, wefttrace.ProcessorConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopCalls++
	return nil
}

func newCoordinator(t *testing.T, cfg *config.Config, procs map[string]wefttrace.Processor) *provider.Coordinator {
	t.Helper()
	reg := processor.NewStaticRegistry()
	for name, p := range procs {
		p := p
		require.NoError(t, reg.Register(name, func() wefttrace.Processor { return p }))
	}
	c, err := provider.New(context.Background(), provider.Options{
		Config:   cfg,
		Registry: reg,
		Logger:   logger.NewLogger("error", "text", io.Discard),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

// TestCoordinatorRequiresConfig verifies construction fails without a config.
func TestCoordinatorRequiresConfig(t *testing.T) {
	_, err := provider.New(context.Background(), provider.Options{})
	require.Error(t, err)
	var cfgErr *werrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

// TestCoordinatorStartupFaultContainment verifies a processor whose startup
// panics is dropped while its neighbors survive in order, and that the
// dropped processor takes no further part in flushing.
func TestCoordinatorStartupFaultContainment(t *testing.T) {
	a := &startableProc{recordingProc: &recordingProc{tag: "a"}}
	b := &startableProc{recordingProc: &recordingProc{tag: "b"}, startupPanic: true}
	c := &startableProc{recordingProc: &recordingProc{tag: "c"}}
	c.flushErr = errors.New("exporter unreachable")

	coord := newCoordinator(t, &config.Config{
		Processors: []config.ProcessorSpec{{Type: "a"}, {Type: "b"}, {Type: "c"}},
	}, map[string]wefttrace.Processor{"a": a, "b": b, "c": c})

	err := coord.ForceFlush(context.Background())
	require.Error(t, err)

	var flushErr *werrors.FlushError
	require.ErrorAs(t, err, &flushErr)
	require.Len(t, flushErr.Failures, 1)
	assert.Equal(t, "c", flushErr.Failures[0].ProcessorName)
	assert.EqualError(t, flushErr.Failures[0].Cause, "exporter unreachable")

	_, aFlushes := a.counts()
	_, bFlushes := b.counts()
	assert.Equal(t, 1, aFlushes)
	assert.Zero(t, bFlushes, "dropped processor must not be flushed")
}

// TestCoordinatorDenyList verifies deny-listed scope names receive noop
// tracers while all other scopes receive default ones, matching on the exact
// name only.
func TestCoordinatorDenyList(t *testing.T) {
	coord := newCoordinator(t, &config.Config{
		DenyList: []config.DenyRule{{Name: "noisy/client"}},
	}, nil)
	ctx := context.Background()

	_, kind := coord.Tracer(ctx, "noisy/client")
	assert.Equal(t, wefttrace.KindNoop, kind)

	_, kind = coord.Tracer(ctx, "noisy/client/v2")
	assert.Equal(t, wefttrace.KindDefault, kind, "deny rules match exact names, not prefixes")

	_, kind = coord.Tracer(ctx, "app/server")
	assert.Equal(t, wefttrace.KindDefault, kind)
}

// TestCoordinatorDisabled verifies the disabled configuration serves noop
// tracers for every scope while flush and resource requests keep working.
func TestCoordinatorDisabled(t *testing.T) {
	p := &recordingProc{tag: "p"}
	coord := newCoordinator(t, &config.Config{
		Disabled:   true,
		Processors: []config.ProcessorSpec{{Type: "p"}},
	}, map[string]wefttrace.Processor{"p": p})
	ctx := context.Background()

	tracer, kind := coord.Tracer(ctx, "app/server")
	assert.Equal(t, wefttrace.KindNoop, kind)

	_, span := tracer.Start(ctx, "op")
	assert.False(t, span.IsRecording())
	span.End()

	require.NoError(t, coord.ForceFlush(ctx))
	_, flushes := p.counts()
	assert.Equal(t, 1, flushes, "processors are flushable even when tracing is disabled")

	res, err := coord.Resource(ctx)
	require.NoError(t, err)
	assert.NotNil(t, res)
}

// TestCoordinatorDegradedOnSamplerFailure verifies a sampler that cannot be
// constructed degrades tracer issuance to noop instead of failing startup.
func TestCoordinatorDegradedOnSamplerFailure(t *testing.T) {
	coord := newCoordinator(t, &config.Config{
		Sampler: &config.SamplerSpec{Name: "unheard_of"},
	}, nil)

	_, kind := coord.Tracer(context.Background(), "app/server")
	assert.Equal(t, wefttrace.KindNoop, kind)
	require.NoError(t, coord.ForceFlush(context.Background()))
}

// TestCoordinatorResourceStable verifies repeated resource requests observe
// the identical detected resource.
func TestCoordinatorResourceStable(t *testing.T) {
	coord := newCoordinator(t, &config.Config{Service: config.ServiceConfig{Name: "stable-svc"}}, nil)
	ctx := context.Background()

	first, err := coord.Resource(ctx)
	require.NoError(t, err)
	_, _ = coord.Tracer(ctx, "interleaved")
	second, err := coord.Resource(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

// TestCoordinatorIgnoresUnknownMessages verifies an unrecognized mailbox
// message does not disturb request handling.
func TestCoordinatorIgnoresUnknownMessages(t *testing.T) {
	coord := newCoordinator(t, &config.Config{}, nil)

	coord.Notify(struct{ junk string }{junk: "future protocol"})
	coord.Notify(42)

	res, err := coord.Resource(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, res)
}

// TestCoordinatorSpanLifecycle verifies default tracers produce recording
// spans with valid, parent-linked span contexts and deliver each ended span to
// the processor chain exactly once.
func TestCoordinatorSpanLifecycle(t *testing.T) {
	p := &recordingProc{tag: "p"}
	coord := newCoordinator(t, &config.Config{
		Processors: []config.ProcessorSpec{{Type: "p"}},
	}, map[string]wefttrace.Processor{"p": p})

	tracer, kind := coord.Tracer(context.Background(), "app/server")
	require.Equal(t, wefttrace.KindDefault, kind)

	ctx, parent := tracer.Start(context.Background(), "parent-op")
	require.True(t, parent.IsRecording())
	require.True(t, parent.SpanContext().IsValid())
	assert.True(t, parent.SpanContext().IsSampled())

	_, child := tracer.Start(ctx, "child-op")
	assert.Equal(t, parent.SpanContext().TraceID(), child.SpanContext().TraceID())
	assert.NotEqual(t, parent.SpanContext().SpanID(), child.SpanContext().SpanID())

	child.End()
	parent.End()
	parent.End() // second end is a no-op

	ends, _ := p.counts()
	assert.Equal(t, 2, ends)
}

// TestCoordinatorAlwaysOffSampler verifies dropped spans are non-recording and
// never reach the processor chain.
func TestCoordinatorAlwaysOffSampler(t *testing.T) {
	p := &recordingProc{tag: "p"}
	coord := newCoordinator(t, &config.Config{
		Sampler:    &config.SamplerSpec{Name: config.SamplerAlwaysOff},
		Processors: []config.ProcessorSpec{{Type: "p"}},
	}, map[string]wefttrace.Processor{"p": p})

	tracer, kind := coord.Tracer(context.Background(), "app/server")
	require.Equal(t, wefttrace.KindDefault, kind, "a dropping sampler still yields a default tracer")

	_, span := tracer.Start(context.Background(), "op")
	assert.False(t, span.IsRecording())
	assert.True(t, span.SpanContext().IsValid(), "dropped spans still carry a propagatable context")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()

	ends, _ := p.counts()
	assert.Zero(t, ends)
}

// TestCoordinatorZeroSurvivors verifies the coordinator stays fully
// operational when every configured processor fails startup.
func TestCoordinatorZeroSurvivors(t *testing.T) {
	bad := &startableProc{recordingProc: &recordingProc{tag: "bad"}, startupPanic: true}
	coord := newCoordinator(t, &config.Config{
		Processors: []config.ProcessorSpec{{Type: "bad"}},
	}, map[string]wefttrace.Processor{"bad": bad})

	tracer, kind := coord.Tracer(context.Background(), "app/server")
	require.Equal(t, wefttrace.KindDefault, kind)

	_, span := tracer.Start(context.Background(), "op")
	assert.True(t, span.IsRecording())
	span.End()

	require.NoError(t, coord.ForceFlush(context.Background()))
}

// TestCoordinatorShutdown verifies shutdown flushes, stops stoppable
// processors, rejects subsequent requests and is idempotent.
func TestCoordinatorShutdown(t *testing.T) {
	p := &stoppableProc{recordingProc: &recordingProc{tag: "p"}}
	coord := newCoordinator(t, &config.Config{
		Processors: []config.ProcessorSpec{{Type: "p"}},
	}, map[string]wefttrace.Processor{"p": p})
	ctx := context.Background()

	require.NoError(t, coord.Shutdown(ctx))

	p.mu.Lock()
	stops, flushes := p.stopCalls, p.flushCalls
	p.mu.Unlock()
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, flushes, "shutdown performs a final flush")

	_, err := coord.Resource(ctx)
	assert.ErrorIs(t, err, provider.ErrStopped)
	assert.ErrorIs(t, coord.ForceFlush(ctx), provider.ErrStopped)

	_, kind := coord.Tracer(ctx, "app/server")
	assert.Equal(t, wefttrace.KindNoop, kind)

	require.NoError(t, coord.Shutdown(ctx), "repeated shutdown is a no-op")
}

// TestCoordinatorConcurrentRequests verifies the mailbox serializes a burst of
// mixed requests without losing or corrupting replies.
func TestCoordinatorConcurrentRequests(t *testing.T) {
	coord := newCoordinator(t, &config.Config{}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := coord.Resource(ctx)
			assert.NoError(t, err)
			assert.NotNil(t, res)
			_, kind := coord.Tracer(ctx, "app/server")
			assert.Equal(t, wefttrace.KindDefault, kind)
			assert.NoError(t, coord.ForceFlush(ctx))
		}()
	}
	wg.Wait()
}
