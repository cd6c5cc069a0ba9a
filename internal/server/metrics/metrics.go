// Package metrics exposes the server's Prometheus instruments.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the server instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Predictions       *prometheus.CounterVec
	WorkerDuration    *prometheus.HistogramVec
	WorkersInFlight   prometheus.Gauge
	RetrainingCapture *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
}

// New registers the instruments with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Predictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodkeeper_predictions_total",
			Help: "Server-side predictions by record kind and outcome",
		}, []string{"kind", "outcome"}),

		WorkerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "moodkeeper_worker_duration_seconds",
			Help:    "Wall time of classifier worker processes",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"command", "outcome"}),

		WorkersInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "moodkeeper_workers_in_flight",
			Help: "Classifier worker processes currently running",
		}),

		RetrainingCapture: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodkeeper_retraining_events_total",
			Help: "Retraining corpus changes by kind and action",
		}, []string{"kind", "action"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodkeeper_http_requests_total",
			Help: "HTTP requests by route pattern and status class",
		}, []string{"route", "status"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (m *Metrics) IncPrediction(kind string, err error) {
	if m != nil {
		m.Predictions.WithLabelValues(kind, outcome(err)).Inc()
	}
}

func (m *Metrics) ObserveWorkerRun(command string, d time.Duration, err error) {
	if m != nil {
		m.WorkerDuration.WithLabelValues(command, outcome(err)).Observe(d.Seconds())
	}
}

func (m *Metrics) WorkerStarted() {
	if m != nil {
		m.WorkersInFlight.Inc()
	}
}

func (m *Metrics) WorkerFinished() {
	if m != nil {
		m.WorkersInFlight.Dec()
	}
}

func (m *Metrics) IncRetraining(kind, action string) {
	if m != nil {
		m.RetrainingCapture.WithLabelValues(kind, action).Inc()
	}
}

func (m *Metrics) IncHTTPRequest(route string, status int) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, statusClass(status)).Inc()
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
