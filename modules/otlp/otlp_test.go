package otlp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gxo-labs/weft/internal/processor"
	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// captureExporter records exported batches in place of a live collector.
type captureExporter struct {
	mu        sync.Mutex
	batches   [][]sdktrace.ReadOnlySpan
	exportErr error
	shutdowns int
}

func (e *captureExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exportErr != nil {
		return e.exportErr
	}
	e.batches = append(e.batches, spans)
	return nil
}

func (e *captureExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdowns++
	return nil
}

func startedConfig(exp sdktrace.SpanExporter, maxSize int) wefttrace.ProcessorConfig {
	return wefttrace.ProcessorConfig{
		instanceKey: &instance{exporter: exp, timeout: time.Second, maxSize: maxSize},
	}
}

func spanNamed(name string) wefttrace.Span {
	return wefttrace.Span{
		Name: name,
		SpanContext: oteltrace.NewSpanContext(oteltrace.SpanContextConfig{
			TraceID:    oteltrace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10},
			SpanID:     oteltrace.SpanID{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18},
			TraceFlags: oteltrace.FlagsSampled,
		}),
		StartTime: time.Now().Add(-time.Millisecond),
		EndTime:   time.Now(),
	}
}

// TestRegisteredGlobally verifies the module self-registers under its type name.
func TestRegisteredGlobally(t *testing.T) {
	factory, err := processor.DefaultStaticRegistryGetter.Get(ProcessorTypeName)
	require.NoError(t, err)
	assert.NotNil(t, factory())
}

// TestOnEndBuffersSpans verifies ended spans accumulate and are exported on
// the next flush, after which the buffer is empty.
func TestOnEndBuffersSpans(t *testing.T) {
	exp := &captureExporter{}
	p := &Processor{}
	cfg := startedConfig(exp, 16)

	p.OnEnd(spanNamed("a"), cfg)
	p.OnEnd(spanNamed("b"), cfg)

	require.NoError(t, p.ForceFlush(cfg))
	require.Len(t, exp.batches, 1)
	require.Len(t, exp.batches[0], 2)
	assert.Equal(t, "a", exp.batches[0][0].Name())
	assert.Equal(t, "b", exp.batches[0][1].Name())

	// Nothing buffered: the next flush exports nothing.
	require.NoError(t, p.ForceFlush(cfg))
	assert.Len(t, exp.batches, 1)
}

// TestOnEndDropsOldestOnOverflow verifies the bounded buffer discards the
// oldest span and the drop is surfaced by the flush that follows.
func TestOnEndDropsOldestOnOverflow(t *testing.T) {
	exp := &captureExporter{}
	p := &Processor{}
	cfg := startedConfig(exp, 2)

	assert.True(t, p.OnEnd(spanNamed("a"), cfg))
	assert.True(t, p.OnEnd(spanNamed("b"), cfg))
	assert.True(t, p.OnEnd(spanNamed("c"), cfg), "overflow still signals success")

	err := p.ForceFlush(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dropped 1 span")

	require.Len(t, exp.batches, 1)
	require.Len(t, exp.batches[0], 2)
	assert.Equal(t, "b", exp.batches[0][0].Name())
	assert.Equal(t, "c", exp.batches[0][1].Name())

	// The drop was reported; a subsequent flush is clean.
	require.NoError(t, p.ForceFlush(cfg))
}

// TestForceFlushRetainsBufferOnExportFailure verifies a failed export leaves
// the buffer intact for a later retry.
func TestForceFlushRetainsBufferOnExportFailure(t *testing.T) {
	exp := &captureExporter{exportErr: errors.New("collector unreachable")}
	p := &Processor{}
	cfg := startedConfig(exp, 16)

	p.OnEnd(spanNamed("a"), cfg)
	require.EqualError(t, p.ForceFlush(cfg), "collector unreachable")

	exp.mu.Lock()
	exp.exportErr = nil
	exp.mu.Unlock()

	require.NoError(t, p.ForceFlush(cfg))
	require.Len(t, exp.batches, 1)
	assert.Equal(t, "a", exp.batches[0][0].Name())
}

// TestForceFlushWithoutStartup verifies flushing a never-started processor
// reports an error instead of silently succeeding.
func TestForceFlushWithoutStartup(t *testing.T) {
	p := &Processor{}
	assert.Error(t, p.ForceFlush(wefttrace.ProcessorConfig{}))
}

// TestShutdownFlushesAndReleasesExporter verifies shutdown drains the buffer
// and shuts the exporter down exactly once.
func TestShutdownFlushesAndReleasesExporter(t *testing.T) {
	exp := &captureExporter{}
	p := &Processor{}
	cfg := startedConfig(exp, 16)

	p.OnEnd(spanNamed("a"), cfg)
	require.NoError(t, p.Shutdown(context.Background(), cfg))

	assert.Len(t, exp.batches, 1)
	assert.Equal(t, 1, exp.shutdowns)

	// A never-started processor shuts down cleanly.
	require.NoError(t, p.Shutdown(context.Background(), wefttrace.ProcessorConfig{}))
}

// TestSnapshotsConversion verifies the buffered span representation survives
// conversion into the exporter's read-only form.
func TestSnapshotsConversion(t *testing.T) {
	span := spanNamed("checkout")
	span.Attributes = []attribute.KeyValue{attribute.String("env", "prod")}
	span.StatusCode = codes.Error
	span.StatusDescription = "payment declined"
	span.Scope = wefttrace.InstrumentationScope{Name: "app/payments", Version: "1.4.0"}

	out := snapshots([]wefttrace.Span{span})
	require.Len(t, out, 1)

	ro := out[0]
	assert.Equal(t, "checkout", ro.Name())
	assert.Equal(t, span.SpanContext, ro.SpanContext())
	assert.Equal(t, oteltrace.SpanKindInternal, ro.SpanKind())
	assert.Equal(t, span.Attributes, ro.Attributes())
	assert.Equal(t, codes.Error, ro.Status().Code)
	assert.Equal(t, "payment declined", ro.Status().Description)
	assert.Equal(t, "app/payments", ro.InstrumentationScope().Name)
	assert.Equal(t, "1.4.0", ro.InstrumentationScope().Version)
}

// TestParseExporterSettings exercises the params parsing and its defaults.
func TestParseExporterSettings(t *testing.T) {
	t.Run("grpc defaults", func(t *testing.T) {
		s, err := parseExporterSettings(wefttrace.ProcessorConfig{})
		require.NoError(t, err)
		assert.Equal(t, "grpc", s.protocol)
		assert.Equal(t, defaultGRPCEndpoint, s.endpoint)
		assert.Equal(t, defaultTimeout, s.timeout)
		assert.False(t, s.insecure)
	})

	t.Run("http defaults", func(t *testing.T) {
		s, err := parseExporterSettings(wefttrace.ProcessorConfig{"protocol": "http"})
		require.NoError(t, err)
		assert.Equal(t, "http", s.protocol)
		assert.Equal(t, defaultHTTPEndpoint, s.endpoint)
		assert.Equal(t, defaultHTTPPath, s.urlPath)
	})

	t.Run("explicit settings", func(t *testing.T) {
		s, err := parseExporterSettings(wefttrace.ProcessorConfig{
			"protocol":    "GRPC",
			"endpoint":    "collector.internal:4317",
			"insecure":    true,
			"compression": "gzip",
			"timeout":     "2500",
			"headers":     map[string]interface{}{"authorization": "Bearer x"},
		})
		require.NoError(t, err)
		assert.Equal(t, "grpc", s.protocol)
		assert.Equal(t, "collector.internal:4317", s.endpoint)
		assert.True(t, s.insecure)
		assert.Equal(t, "gzip", s.compression)
		assert.Equal(t, 2500*time.Millisecond, s.timeout)
		assert.Equal(t, map[string]string{"authorization": "Bearer x"}, s.headers)
	})

	t.Run("wrong param type", func(t *testing.T) {
		_, err := parseExporterSettings(wefttrace.ProcessorConfig{"endpoint": 4317})
		assert.Error(t, err)
	})
}

// TestNewExporterRejectsUnknownProtocol verifies protocol validation.
func TestNewExporterRejectsUnknownProtocol(t *testing.T) {
	_, err := newExporter(context.Background(), exporterSettings{protocol: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported OTLP protocol")
}

// TestParseTimeout exercises both accepted timeout notations.
func TestParseTimeout(t *testing.T) {
	testCases := []struct {
		in   string
		want time.Duration
	}{
		{in: "", want: defaultTimeout},
		{in: "250", want: 250 * time.Millisecond},
		{in: "5s", want: 5 * time.Second},
		{in: "100ms", want: 100 * time.Millisecond},
		{in: "-1", want: defaultTimeout},
		{in: "-5s", want: defaultTimeout},
		{in: "soon", want: defaultTimeout},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, parseTimeout(tc.in, defaultTimeout), "input %q", tc.in)
	}
}
