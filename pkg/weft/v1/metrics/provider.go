package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegistryProvider defines the interface for accessing the coordinator's
// metrics registry. This allows consumers of the weft library to expose
// metrics via their chosen method (e.g., Prometheus HTTP endpoint).
type RegistryProvider interface {
	// Registry returns the Prometheus registry containing weft coordinator metrics.
	Registry() *prometheus.Registry
}
