package metrics

import (
	"net/http"
	"time"

	"github.com/zircuit-labs/mongo-status/cmd/config"
	"github.com/zircuit-labs/mongo-status/cmd/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Client interface for metrics collection
type Client interface {
	// ObserveConnect records one database connection attempt
	ObserveConnect(duration time.Duration, err error)
	// Instrument wraps next with request count and latency metrics for route
	Instrument(route string, next http.Handler) http.Handler
	// Handler serves the exposition endpoint
	Handler() http.Handler
	Close() error
}

// PrometheusClient exports metrics from a dedicated registry
type PrometheusClient struct {
	registry        *prometheus.Registry
	connectAttempts *prometheus.CounterVec
	connectDuration prometheus.Histogram
	databaseUp      prometheus.Gauge
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NoOpClient is a no-op implementation of the Client interface
type NoOpClient struct{}

func (c *NoOpClient) ObserveConnect(duration time.Duration, err error) {}
func (c *NoOpClient) Instrument(route string, next http.Handler) http.Handler {
	return next
}
func (c *NoOpClient) Handler() http.Handler { return http.NotFoundHandler() }
func (c *NoOpClient) Close() error { return nil }

// NewClient creates a new metrics client based on configuration
func NewClient(cfg *config.MetricsConfig) (Client, error) {
	if !cfg.Enabled {
		logger.Info("metrics collection disabled")
		return &NoOpClient{}, nil
	}

	logger.Info("metrics collection enabled (Prometheus)", "namespace", cfg.Namespace)

	return NewPrometheusClient(cfg.Namespace), nil
}

// NewPrometheusClient registers all collectors under namespace
func NewPrometheusClient(namespace string) *PrometheusClient {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &PrometheusClient{
		registry: registry,
		connectAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "database",
				Name:      "connect_attempts_total",
				Help:      "Database connection attempts by result.",
			},
			[]string{"result"},
		),
		connectDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "database",
				Name:      "connect_duration_seconds",
				Help:      "Time spent establishing the database connection.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
			},
		),
		databaseUp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "database",
				Name:      "up",
				Help:      "1 when the database connection has been established.",
			},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method", "code"},
		),
	}
}

func (c *PrometheusClient) ObserveConnect(duration time.Duration, err error) {
	c.connectDuration.Observe(duration.Seconds())
	if err != nil {
		c.connectAttempts.WithLabelValues("failure").Inc()
		c.databaseUp.Set(0)
		return
	}
	c.connectAttempts.WithLabelValues("success").Inc()
	c.databaseUp.Set(1)
}

func (c *PrometheusClient) Instrument(route string, next http.Handler) http.Handler {
	labels := prometheus.Labels{"route": route}
	return promhttp.InstrumentHandlerDuration(
		c.requestDuration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(c.requests.MustCurryWith(labels), next),
	)
}

func (c *PrometheusClient) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *PrometheusClient) Close() error {
	return nil
}
