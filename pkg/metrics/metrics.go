// Package metrics records per-run Prometheus metrics for the statement
// downloader and writes them in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	errs "paystubdl/pkg/errors"
)

// Outcome labels for statementsTotal
const (
	OutcomeDownloaded = "downloaded"
	OutcomeSkipped    = "skipped"
	OutcomeFiltered   = "filtered"
)

// Run holds the metrics of a single retrieval pass. Each Run has its own
// registry so repeated runs in one process never share counters.
type Run struct {
	registry *prometheus.Registry

	statementsListed prometheus.Gauge
	statementsTotal  *prometheus.CounterVec
	bytesDownloaded  prometheus.Counter
	runDuration      prometheus.Gauge
	stoppedEarly     prometheus.Gauge
	lastSuccess      prometheus.Gauge
}

// NewRun creates a Run with all collectors registered
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Run{
		registry: reg,
		statementsListed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "paystubdl_statements_listed",
			Help: "Number of statements returned by the portal index",
		}),
		statementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paystubdl_statements_total",
				Help: "Statements processed, by outcome",
			},
			[]string{"outcome"},
		),
		bytesDownloaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "paystubdl_bytes_downloaded_total",
			Help: "Total bytes written to statement files",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "paystubdl_run_duration_seconds",
			Help: "Wall time of the last retrieval pass",
		}),
		stoppedEarly: factory.NewGauge(prometheus.GaugeOpts{
			Name: "paystubdl_run_stopped_early",
			Help: "1 if the last pass stopped after a run of already downloaded statements",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "paystubdl_last_success_timestamp_seconds",
			Help: "Unix time of the last successful retrieval pass",
		}),
	}

	// expose every outcome series from the start
	for _, outcome := range []string{OutcomeDownloaded, OutcomeSkipped, OutcomeFiltered} {
		r.statementsTotal.WithLabelValues(outcome)
	}

	return r
}

// Registry returns the registry backing this run
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// Listed records the size of the statement index
func (r *Run) Listed(n int) {
	r.statementsListed.Set(float64(n))
}

// Downloaded records one newly written statement of size bytes
func (r *Run) Downloaded(bytes int64) {
	r.statementsTotal.WithLabelValues(OutcomeDownloaded).Inc()
	r.bytesDownloaded.Add(float64(bytes))
}

// Skipped records one statement that was already on disk
func (r *Run) Skipped() {
	r.statementsTotal.WithLabelValues(OutcomeSkipped).Inc()
}

// Filtered records one statement outside the selected year
func (r *Run) Filtered() {
	r.statementsTotal.WithLabelValues(OutcomeFiltered).Inc()
}

// Finish records the run's duration and marks it successful
func (r *Run) Finish(duration time.Duration, stoppedEarly bool) {
	r.runDuration.Set(duration.Seconds())
	if stoppedEarly {
		r.stoppedEarly.Set(1)
	} else {
		r.stoppedEarly.Set(0)
	}
	r.lastSuccess.SetToCurrentTime()
}

// WriteTextfile atomically writes the run's metrics to path
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to write metrics textfile")
	}
	return nil
}
