// Package resource detects the descriptor of the reporting entity. Detection
// runs once at coordinator startup; the resulting value is immutable and
// shared by every span the coordinator's tracers produce.
package resource

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	weftlog "github.com/gxo-labs/weft/pkg/weft/v1/log"
)

// defaultServiceName is used when neither the configuration nor the
// OTEL_SERVICE_NAME environment variable names the service.
const defaultServiceName = "weft"

// Detect builds the resource descriptor for the reporting entity: service
// name plus automatically detected process, OS and host information. Detection
// is treated as non-failing for the coordinator's purposes: any detector error
// falls back to the default resource with a warning.
func Detect(ctx context.Context, serviceName string, log weftlog.Logger) *resource.Resource {
	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(semconv.ServiceNameKey.String(resolveServiceName(serviceName))),
		// Automatically detect process, OS, container, and host information.
		resource.WithProcess(), resource.WithOS(), resource.WithContainer(), resource.WithHost(),
	)
	if err != nil {
		log.Warnf("Resource detection failed, using default resource: %v", err)
		return resource.Default()
	}
	return res
}

// resolveServiceName picks the service name from configuration, falling back
// to OTEL_SERVICE_NAME and then the package default.
func resolveServiceName(configured string) string {
	if configured != "" {
		return configured
	}
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	return defaultServiceName
}
