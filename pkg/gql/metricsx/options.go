package metricsx

import "github.com/prometheus/client_golang/prometheus"

type config struct {
	registerer prometheus.Registerer
	namespace  string
}

func defaultConfig() *config {
	return &config{
		registerer: prometheus.DefaultRegisterer,
		namespace:  "gqlx",
	}
}

// Option configures the metrics
type Option func(*config)

// WithRegisterer registers the collectors somewhere other than the
// default registerer. Tests use this to keep registries private.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = r
	}
}

// WithNamespace overrides the metric name prefix (default "gqlx")
func WithNamespace(ns string) Option {
	return func(c *config) {
		c.namespace = ns
	}
}
