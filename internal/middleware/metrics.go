package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "image_identifier",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "status"})

	RequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "image_identifier",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Current number of HTTP requests being served.",
	})

	RequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "image_identifier",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"route"})

	// AnalysisTotal counts pipeline calls by outcome.
	AnalysisTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "image_identifier",
		Subsystem: "analysis",
		Name:      "total",
		Help:      "Total image analyses, labeled by outcome.",
	}, []string{"outcome"})

	// AnalysisDurationSeconds is end-to-end pipeline time, model call included.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "image_identifier",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Time to validate, invoke the model and normalize one image.",
		Buckets:   []float64{0.05, 0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	}, []string{"outcome"})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestsInFlight,
			RequestDurationSeconds,
			AnalysisTotal,
			AnalysisDurationSeconds,
		)
	})
}

// Metrics tracks request counters; the route label is chi's pattern, not the raw path.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RequestsInFlight.Inc()
		defer RequestsInFlight.Dec()
		start := time.Now()

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		RequestDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// AnalysisObserver feeds pipeline outcomes into the analysis collectors.
type AnalysisObserver struct{}

func (AnalysisObserver) ObserveAnalysis(outcome string, d time.Duration) {
	AnalysisTotal.WithLabelValues(outcome).Inc()
	AnalysisDurationSeconds.WithLabelValues(outcome).Observe(d.Seconds())
}

// MetricsHandler exposes the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
