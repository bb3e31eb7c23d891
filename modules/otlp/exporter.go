package otlp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/encoding/gzip"

	"github.com/gxo-labs/weft/internal/paramutil"
	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// Default collector endpoints per protocol.
const (
	defaultGRPCEndpoint = "localhost:4317"
	defaultHTTPEndpoint = "localhost:4318"
	defaultHTTPPath     = "/v1/traces"
	defaultTimeout      = 10 * time.Second
)

// exporterSettings is the parsed exporter portion of the processor params.
type exporterSettings struct {
	protocol    string
	endpoint    string
	urlPath     string
	insecure    bool
	compression string
	timeout     time.Duration
	headers     map[string]string
}

// parseExporterSettings validates and extracts the exporter params. Absent
// values fall back to the conventional collector defaults.
func parseExporterSettings(cfg wefttrace.ProcessorConfig) (exporterSettings, error) {
	s := exporterSettings{timeout: defaultTimeout}

	protocol, found, err := paramutil.GetOptionalString(cfg, "protocol")
	if err != nil {
		return s, err
	}
	if !found || protocol == "" {
		protocol = "grpc"
	}
	s.protocol = strings.ToLower(protocol)

	s.endpoint, _, err = paramutil.GetOptionalString(cfg, "endpoint")
	if err != nil {
		return s, err
	}
	if s.endpoint == "" {
		switch s.protocol {
		case "grpc":
			s.endpoint = defaultGRPCEndpoint
		case "http", "http/protobuf":
			s.endpoint = defaultHTTPEndpoint
		}
	}

	s.urlPath, _, err = paramutil.GetOptionalString(cfg, "url_path")
	if err != nil {
		return s, err
	}
	if s.urlPath == "" {
		s.urlPath = defaultHTTPPath
	}

	s.insecure, _, err = paramutil.GetOptionalBool(cfg, "insecure")
	if err != nil {
		return s, err
	}

	s.compression, _, err = paramutil.GetOptionalString(cfg, "compression")
	if err != nil {
		return s, err
	}

	timeoutStr, found, err := paramutil.GetOptionalString(cfg, "timeout")
	if err != nil {
		return s, err
	}
	if found {
		s.timeout = parseTimeout(timeoutStr, defaultTimeout)
	}

	s.headers, _, err = paramutil.GetOptionalStringMap(cfg, "headers")
	if err != nil {
		return s, err
	}

	return s, nil
}

// newExporter creates the OTLP span exporter (gRPC or HTTP) described by the
// settings.
func newExporter(ctx context.Context, s exporterSettings) (sdktrace.SpanExporter, error) {
	switch s.protocol {
	case "grpc":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(s.endpoint),
			otlptracegrpc.WithHeaders(s.headers),
			otlptracegrpc.WithTimeout(s.timeout),
		}
		if s.insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else {
			// Default TLS credentials from the system CA pool.
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
		}
		if strings.ToLower(s.compression) == "gzip" {
			opts = append(opts, otlptracegrpc.WithCompressor(gzip.Name))
		}
		return otlptracegrpc.New(ctx, opts...)

	case "http", "http/protobuf":
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(s.endpoint),
			otlptracehttp.WithURLPath(s.urlPath),
			otlptracehttp.WithHeaders(s.headers),
			otlptracehttp.WithTimeout(s.timeout),
		}
		if s.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if strings.ToLower(s.compression) == "gzip" {
			opts = append(opts, otlptracehttp.WithCompression(otlptracehttp.GzipCompression))
		}
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %s", s.protocol)
	}
}

// parseTimeout converts a timeout string (integer milliseconds or Go duration
// format) into a time.Duration, using the default if parsing fails.
func parseTimeout(timeoutStr string, fallback time.Duration) time.Duration {
	if timeoutStr == "" {
		return fallback
	}
	// Integer milliseconds first (standard OTLP convention).
	if timeoutMs, err := strconv.ParseInt(timeoutStr, 10, 64); err == nil {
		if timeoutMs < 0 {
			return fallback
		}
		return time.Duration(timeoutMs) * time.Millisecond
	}
	// Fall back to Go duration format (e.g. "5s", "100ms").
	if duration, err := time.ParseDuration(timeoutStr); err == nil {
		if duration < 0 {
			return fallback
		}
		return duration
	}
	return fallback
}
