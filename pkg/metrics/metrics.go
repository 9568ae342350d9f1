package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes the service counters to Prometheus.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Recorder struct {
	registry *prometheus.Registry

	fetchTotal       *prometheus.CounterVec
	eventsCreated    *prometheus.CounterVec
	predictionsTotal *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	schedulerRunning prometheus.Gauge
}

// New creates a Prometheus metrics recorder with its own registry.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_fetch_total",
				Help: "Total number of upstream fetches by source and status",
			},
			[]string{"source", "status"},
		),
		eventsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_events_created_total",
				Help: "Total number of alert events created by type",
			},
			[]string{"type"},
		),
		predictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_predictions_total",
				Help: "Total number of predictions generated by subject",
			},
			[]string{"subject"},
		),
		jobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulse_job_duration_seconds",
				Help:    "Duration of scheduler jobs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		schedulerRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pulse_scheduler_running",
				Help: "Whether the scheduler is currently running (1) or stopped (0)",
			},
		),
	}
}

// RecordFetch records one upstream fetch attempt.
// status is "ok" or "error".
func (r *Recorder) RecordFetch(source, status string) {
	r.fetchTotal.WithLabelValues(source, status).Inc()
}

// RecordEvent records one created alert event.
func (r *Recorder) RecordEvent(eventType string) {
	r.eventsCreated.WithLabelValues(eventType).Inc()
}

// RecordPrediction records one generated prediction.
func (r *Recorder) RecordPrediction(subject string) {
	r.predictionsTotal.WithLabelValues(subject).Inc()
}

// ObserveJobDuration records a completed scheduler job run.
func (r *Recorder) ObserveJobDuration(job string, seconds float64) {
	r.jobDuration.WithLabelValues(job).Observe(seconds)
}

// SetSchedulerRunning flips the scheduler state gauge.
func (r *Recorder) SetSchedulerRunning(running bool) {
	if running {
		r.schedulerRunning.Set(1)
	} else {
		r.schedulerRunning.Set(0)
	}
}

// Handler returns the scrape endpoint for this recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
