// Package jobmetrics instruments background job runs.
package jobmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors shared by every job handler.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	processed   *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

// NewMetrics registers the job collectors on registerer. A nil registerer
// yields working collectors that are not exported anywhere.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: "odyssey", Subsystem: "jobs", Name: name, Help: help}
	}
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts(opts("runs_total",
			"Job executions by job name and status.")), []string{"job", "status"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts(opts("failures_total",
			"Failed job executions by job name.")), []string{"job"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "odyssey",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Job execution latency.",
			Buckets:   []float64{.05, .1, .5, 1, 5, 15, 60},
		}, []string{"job"}),
		processed: factory.NewCounterVec(prometheus.CounterOpts(opts("items_processed_total",
			"Items handled by job runs, e.g. purged revocation records.")), []string{"job"}),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts(opts("last_success_timestamp_seconds",
			"Unix time of the last successful run.")), []string{"job"}),
		now: time.Now,
	}
}

// Tracker times a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job. It is safe on a nil receiver.
func (m *Metrics) Track(job string) *Tracker {
	t := &Tracker{metrics: m, job: job, start: time.Now()}
	if m != nil {
		t.start = m.now()
	}
	return t
}

// End records the outcome of the run and returns err unchanged, so handlers
// can write `defer func() { err = tracker.End(err) }()`.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	m := t.metrics
	finished := m.now()
	m.duration.WithLabelValues(t.job).Observe(finished.Sub(t.start).Seconds())
	if err != nil {
		m.runs.WithLabelValues(t.job, "failure").Inc()
		m.failures.WithLabelValues(t.job).Inc()
		return err
	}
	m.runs.WithLabelValues(t.job, "success").Inc()
	m.lastSuccess.WithLabelValues(t.job).Set(float64(finished.Unix()))
	return nil
}

// AddProcessed adds count to the items-processed counter of job.
func (m *Metrics) AddProcessed(job string, count int64) {
	if m == nil || job == "" || count <= 0 {
		return
	}
	m.processed.WithLabelValues(job).Add(float64(count))
}
