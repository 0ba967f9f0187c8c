package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config selects where and how batchflow metrics are registered.
type Config struct {
	// Enabled controls whether an Instrumentable records anything.
	Enabled bool

	// Registry receives the collectors; nil means prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace prefixes every metric name; empty means DefaultNamespace.
	Namespace string

	// Labels are constant labels added to every metric.
	Labels prometheus.Labels
}

// DefaultConfig returns an enabled configuration on the default registerer.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: DefaultNamespace,
	}
}

// Custom reports whether c asks for anything other than the default
// registerer, namespace and labels.
func (c Config) Custom() bool {
	return (c.Registry != nil && c.Registry != prometheus.DefaultRegisterer) ||
		(c.Namespace != "" && c.Namespace != DefaultNamespace) ||
		len(c.Labels) > 0
}

func (c Config) registerer() prometheus.Registerer {
	if c.Registry == nil {
		return prometheus.DefaultRegisterer
	}
	return c.Registry
}

func (c Config) namespace() string {
	if c.Namespace == "" {
		return DefaultNamespace
	}
	return c.Namespace
}

// Instrumentable is implemented by components whose metrics can be
// switched on and off at runtime.
type Instrumentable interface {
	// EnableMetrics starts recording as described by config.
	EnableMetrics(config Config) error

	// DisableMetrics stops recording. Collected values are kept.
	DisableMetrics()

	// MetricsEnabled reports whether the component is recording.
	MetricsEnabled() bool
}
