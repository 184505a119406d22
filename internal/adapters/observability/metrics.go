package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "booking", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "booking", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "booking", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del|error
	)
	Admissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "booking", Name: "admissions_total", Help: "Booking admission outcomes."},
		[]string{"outcome"}, // admitted|no_availability|invalid|not_found|error
	)
	JobsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "booking", Name: "jobs_published_total", Help: "Background jobs handed to the broker."},
		[]string{"broker", "type", "result"},
	)
	JobPublishLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "booking", Name: "job_publish_duration_seconds",
			Help:    "Time to get a job accepted by the broker.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"broker"},
	)
	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "booking", Name: "jobs_processed_total", Help: "Jobs handled by the worker."},
		[]string{"type", "result"},
	)
)

// Serve exposes reg on addr/metrics in the background. Empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, CacheEvents, Admissions, JobsPublished, JobPublishLatency, JobsProcessed)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveAdmission(outcome string) { Admissions.WithLabelValues(outcome).Inc() }

func ObservePublish(broker, jobType string, err error, dur time.Duration) {
	JobsPublished.WithLabelValues(broker, jobType, result(err)).Inc()
	JobPublishLatency.WithLabelValues(broker).Observe(dur.Seconds())
}

func ObserveJob(jobType string, err error) { JobsProcessed.WithLabelValues(jobType, result(err)).Inc() }

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
