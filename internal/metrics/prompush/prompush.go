// Package prompush implements a Prometheus backend for the metrics package.
//
// Collectors live in a private registry. A batch run pushes that registry to
// a Pushgateway on Flush; the API server exposes the same registry for
// scraping through Handler.
package prompush

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"tmdbetl/internal/metrics"
)

// DefaultJob is the Pushgateway grouping job used when none is given.
const DefaultJob = "tmdbetl"

// Backend is a Prometheus metrics backend.
type Backend struct {
	gatewayURL string // empty for scrape-only
	jobName    string
	reg        *prometheus.Registry

	stepCounter     *prometheus.CounterVec
	stepDuration    *prometheus.SummaryVec
	recordCounter   *prometheus.CounterVec
	batchCounter    prometheus.Counter
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewBackend constructs a backend pushing to gatewayURL on Flush.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	return newBackend(jobName, gatewayURL)
}

// NewScrapeBackend constructs a backend that is only scraped through
// Handler. Flush is a no-op.
func NewScrapeBackend(jobName string) (*Backend, error) {
	return newBackend(jobName, "")
}

func newBackend(jobName, gatewayURL string) (*Backend, error) {
	if jobName == "" {
		jobName = DefaultJob
	}
	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline stage executions by step and status.",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Pipeline stage duration in seconds by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		recordCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record counts by kind (movies_loaded, merged, cleaned, ...).",
		}, []string{"kind"}),
		batchCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Bulk insert batches flushed to storage.",
		}),
		requestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RequestsTotal,
			Help: "API requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.RequestDuration,
			Help:    "API request latency in seconds by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter":     b.stepCounter,
		"step summary":     b.stepDuration,
		"record counter":   b.recordCounter,
		"batch counter":    b.batchCounter,
		"request counter":  b.requestCounter,
		"request duration": b.requestDuration,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RecordsTotal:
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.BatchesTotal:
		b.batchCounter.Add(delta)
	case metrics.RequestsTotal:
		b.requestCounter.WithLabelValues(labels["route"], labels["code"]).Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend. Unknown names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case metrics.StepDuration:
		b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
	case metrics.RequestDuration:
		b.requestDuration.WithLabelValues(labels["route"], labels["code"]).Observe(value)
	}
}

// Flush pushes the registry to the Pushgateway, if one is configured.
func (b *Backend) Flush() error {
	if b.gatewayURL == "" {
		return nil
	}
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func (b *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{Registry: b.reg})
}

// Registry returns the backing registry.
func (b *Backend) Registry() *prometheus.Registry { return b.reg }
