// Package metrics exposes Prometheus counters for the publishing pipeline.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what workers and services report to.
type Recorder interface {
	RecordPublish(platform, outcome string, d time.Duration)
	RecordMetricsCollection(platform, outcome string)
	RecordAutomation(actionType, outcome string)
	RecordBreakerState(platform string, open bool)
	// Discard records an error that was swallowed on purpose, such as a
	// failed notification.
	Discard(source string, err error)
}

type Collector struct {
	publishTotal    *prometheus.CounterVec
	publishLatency  *prometheus.HistogramVec
	metricsTotal    *prometheus.CounterVec
	automationTotal *prometheus.CounterVec
	breakerOpen     *prometheus.GaugeVec
	discarded       *prometheus.CounterVec
	logger          *slog.Logger
}

// NewCollector registers the pipeline metrics on reg.
func NewCollector(reg prometheus.Registerer, logger *slog.Logger) *Collector {
	c := &Collector{
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postflow_publish_total",
			Help: "Terminal publish job outcomes per platform.",
		}, []string{"platform", "outcome"}),
		publishLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "postflow_publish_duration_seconds",
			Help:    "Publish job duration per platform.",
			Buckets: prometheus.DefBuckets,
		}, []string{"platform"}),
		metricsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postflow_metrics_collection_total",
			Help: "Engagement metric collection attempts per platform.",
		}, []string{"platform", "outcome"}),
		automationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postflow_automation_runs_total",
			Help: "Automated action executions by type.",
		}, []string{"type", "outcome"}),
		breakerOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "postflow_platform_breaker_open",
			Help: "1 when the platform circuit breaker is open.",
		}, []string{"platform"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postflow_discarded_errors_total",
			Help: "Errors swallowed by best-effort paths.",
		}, []string{"source"}),
		logger: logger,
	}

	reg.MustRegister(
		c.publishTotal,
		c.publishLatency,
		c.metricsTotal,
		c.automationTotal,
		c.breakerOpen,
		c.discarded,
	)

	return c
}

func (c *Collector) RecordPublish(platform, outcome string, d time.Duration) {
	c.publishTotal.WithLabelValues(platform, outcome).Inc()
	c.publishLatency.WithLabelValues(platform).Observe(d.Seconds())
}

func (c *Collector) RecordMetricsCollection(platform, outcome string) {
	c.metricsTotal.WithLabelValues(platform, outcome).Inc()
}

func (c *Collector) RecordAutomation(actionType, outcome string) {
	c.automationTotal.WithLabelValues(actionType, outcome).Inc()
}

func (c *Collector) RecordBreakerState(platform string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	c.breakerOpen.WithLabelValues(platform).Set(v)
}

func (c *Collector) Discard(source string, err error) {
	if err == nil {
		return
	}
	c.discarded.WithLabelValues(source).Inc()
	if c.logger != nil {
		c.logger.Warn("discarded error", "source", source, "error", err)
	}
}

// Handler serves the registry for Prometheus scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Useful in tests and tools.
type Nop struct{}

func (Nop) RecordPublish(string, string, time.Duration) {}
func (Nop) RecordMetricsCollection(string, string)      {}
func (Nop) RecordAutomation(string, string)             {}
func (Nop) RecordBreakerState(string, bool)             {}
func (Nop) Discard(string, error)                       {}
