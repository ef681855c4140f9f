package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	dbOpSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_op_duration_seconds",
			Help:    "Latency of database operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"op", "result"},
	)

	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landuse_uploads_total",
			Help: "Upload requests by outcome.",
		},
		[]string{"outcome"},
	)

	uploadFeaturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landuse_upload_features_total",
			Help: "Uploaded features by disposition.",
		},
		[]string{"disposition"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Response cache results by outcome.",
		},
		[]string{"outcome"},
	)

	cacheOpSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_duration_seconds",
			Help:    "Latency of cache backend operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "result"},
	)
)

// Init registers the collectors on reg; a nil reg leaves them unregistered
// so the Observe helpers still work in tests and when metrics are disabled.
func Init(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	reg.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		dbOpSeconds,
		uploadsTotal,
		uploadFeaturesTotal,
		cacheResults,
		cacheOpSeconds,
	)
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveDBOp(op string, err error, durationSeconds float64) {
	dbOpSeconds.WithLabelValues(op, result(err)).Observe(durationSeconds)
}

func ObserveUpload(outcome string, inserted, skipped int) {
	uploadsTotal.WithLabelValues(outcome).Inc()
	if inserted > 0 {
		uploadFeaturesTotal.WithLabelValues("inserted").Add(float64(inserted))
	}
	if skipped > 0 {
		uploadFeaturesTotal.WithLabelValues("skipped").Add(float64(skipped))
	}
}

func IncCacheHit()  { cacheResults.WithLabelValues("hit").Inc() }
func IncCacheMiss() { cacheResults.WithLabelValues("miss").Inc() }

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	cacheOpSeconds.WithLabelValues(op, result(err)).Observe(durationSeconds)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
