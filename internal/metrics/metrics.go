// Package metrics records the per-submission ingest events: one "received"
// and one "result" per ingest, plus the number and types of validation
// failures, each tagged by fund, round and organisation.
package metrics

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingest results.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Labels tag every event.
type Labels struct {
	Fund         string
	Round        int
	Organisation string
}

func (l Labels) values() []string {
	return []string{l.Fund, strconv.Itoa(l.Round), l.Organisation}
}

// Recorder receives ingest events.
type Recorder interface {
	SubmissionReceived(l Labels)
	IngestResult(l Labels, result string)
	// ValidationFailures records one submission's failures by error type.
	ValidationFailures(l Labels, errorTypes []string)
}

// Nop discards every event.
type Nop struct{}

func (Nop) SubmissionReceived(Labels)           {}
func (Nop) IngestResult(Labels, string)         {}
func (Nop) ValidationFailures(Labels, []string) {}

var labelNames = []string{"fund", "round", "organisation"}

// Prometheus is a Recorder backed by its own prometheus registry.
type Prometheus struct {
	registry *prometheus.Registry

	received       *prometheus.CounterVec
	results        *prometheus.CounterVec
	failures       *prometheus.HistogramVec
	failuresByType *prometheus.CounterVec
}

// NewPrometheus registers the ingest metrics, plus the Go and process
// collectors, on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		received: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundingdata",
			Name:      "submissions_received_total",
			Help:      "Submissions received for ingest.",
		}, labelNames),
		results: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundingdata",
			Name:      "submission_ingest_results_total",
			Help:      "Ingest outcomes by result (success, invalid, error).",
		}, append(append([]string(nil), labelNames...), "result")),
		failures: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fundingdata",
			Name:      "submission_validation_errors",
			Help:      "Validation failures per invalid submission.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250, 500},
		}, labelNames),
		failuresByType: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundingdata",
			Name:      "submission_validation_errors_by_type_total",
			Help:      "Validation failures by error type.",
		}, append(append([]string(nil), labelNames...), "error_type")),
	}
}

// SubmissionReceived counts an incoming submission.
func (p *Prometheus) SubmissionReceived(l Labels) {
	p.received.WithLabelValues(l.values()...).Inc()
}

// IngestResult counts an ingest outcome. Unknown results are dropped.
func (p *Prometheus) IngestResult(l Labels, result string) {
	switch result {
	case ResultSuccess, ResultInvalid, ResultError:
	default:
		slog.Warn("ignoring unknown ingest result", "result", result)
		return
	}
	p.results.WithLabelValues(append(l.values(), result)...).Inc()
}

// ValidationFailures observes the failure count and counts each type.
func (p *Prometheus) ValidationFailures(l Labels, errorTypes []string) {
	p.failures.WithLabelValues(l.values()...).Observe(float64(len(errorTypes)))
	for _, t := range errorTypes {
		p.failuresByType.WithLabelValues(append(l.values(), t)...).Inc()
	}
}

// Handler serves the registry in the prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
