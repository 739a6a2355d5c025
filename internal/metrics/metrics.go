// Package metrics is a small, backend-agnostic facade for pipeline and API
// metrics.
//
// A global backend defaults to a no-op, so instrumentation is always safe to
// call. Concrete systems live in subpackages (prompush, datadog) and are
// installed once at startup with SetBackend.
package metrics

import (
	"strconv"
	"time"
)

// Metric names.
const (
	StepTotal       = "etl_step_total"
	StepDuration    = "etl_step_duration_seconds"
	RecordsTotal    = "etl_records_total"
	BatchesTotal    = "etl_batches_total"
	RequestsTotal   = "api_requests_total"
	RequestDuration = "api_request_duration_seconds"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
// It is not safe to call concurrently with recording.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a pipeline stage and its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds delta to the record counter of kind. Kinds follow the
// pipeline summary: "movies_loaded", "credits_loaded", "skipped", "merged",
// "unmatched", "duplicates", "cleaned", "dropped", "non_financial",
// "persisted".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordBatches counts bulk insert batches flushed to storage.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}

// RecordRequest counts one API request and its latency.
func RecordRequest(route string, code int, d time.Duration) {
	lbls := Labels{"route": route, "code": strconv.Itoa(code)}
	backend.IncCounter(RequestsTotal, 1, lbls)
	backend.ObserveHistogram(RequestDuration, d.Seconds(), lbls)
}
