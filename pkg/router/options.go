package router

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxRedirects bounds redirect chains.
const DefaultMaxRedirects = 10

const defaultTracerName = "waypoint"

// Config holds router settings.
type Config struct {
	// Logger receives navigation logs (default: slog.Default()).
	Logger *slog.Logger

	// Registry receives the router metrics. Metrics are disabled when nil.
	Registry prometheus.Registerer

	// Namespace prefixes metric names (default: "waypoint").
	Namespace string

	// Tracer creates navigation spans (default: the global provider's
	// "waypoint" tracer).
	Tracer trace.Tracer

	// MaxRedirects is how many redirects one navigation may follow.
	MaxRedirects int
}

// Option configures a Router.
type Option func(*Config)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithRegistry enables metrics on registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Config) {
		c.Tracer = t
	}
}

// WithMaxRedirects sets the redirect limit.
func WithMaxRedirects(n int) Option {
	return func(c *Config) {
		c.MaxRedirects = n
	}
}

func defaultConfig() Config {
	return Config{
		Namespace:    "waypoint",
		MaxRedirects: DefaultMaxRedirects,
	}
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer(defaultTracerName)
	}
	if c.Namespace == "" {
		c.Namespace = "waypoint"
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
}
