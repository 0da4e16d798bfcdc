package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImprovementsTotal counts improvement attempts by backend and outcome.
	// result: ok, busy, no_selection or the pipeline error kind.
	ImprovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "butler_improvements_total",
		Help: "Total text improvement attempts.",
	}, []string{"backend", "result"})

	// ImproveDuration tracks backend round-trip latency.
	ImproveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "butler_improve_duration_seconds",
		Help:    "Time spent waiting for the improvement backend.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"backend"})

	// InputChars tracks the distribution of captured text lengths.
	InputChars = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "butler_input_chars",
		Help:    "Number of characters sent for improvement.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	// InFlight is 1 while an improvement is running.
	InFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "butler_in_flight",
		Help: "Whether an improvement is in flight (1) or not (0).",
	})

	// RequestsTotal counts control surface requests by method, path, and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "butler_control_requests_total",
		Help: "Total control surface HTTP requests processed.",
	}, []string{"method", "path", "status"})
)
