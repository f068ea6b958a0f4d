package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Domain metrics.
var (
	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hirehub_auth_attempts_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"},
	)

	assetCleanup = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hirehub_asset_cleanup_total",
			Help: "Best-effort deletions of replaced organization logos by outcome.",
		},
		[]string{"outcome"},
	)

	rolesProvisioned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hirehub_roles_provisioned_total",
		Help: "Roles created by default-role provisioning.",
	})
)

var initOnce sync.Once

// Init registers metrics in the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			authAttempts, assetCleanup, rolesProvisioned,
		)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthAttempt counts a login attempt; result is "success" or "failure".
func RecordAuthAttempt(result string) {
	authAttempts.WithLabelValues(result).Inc()
}

// RecordAssetCleanup counts one logo cleanup; outcome is "ok", "not_found" or "error".
func RecordAssetCleanup(outcome string) {
	assetCleanup.WithLabelValues(outcome).Inc()
}

// RecordRolesProvisioned adds n newly created roles.
func RecordRolesProvisioned(n int) {
	if n > 0 {
		rolesProvisioned.Add(float64(n))
	}
}

// Instrument measures request rate, latency and in-flight count.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)
		path := CanonicalPath(r.URL.Path)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// collections whose second segment is an identifier.
var idCollections = map[string]bool{
	"users":         true,
	"organizations": true,
	"jobs":          true,
	"applications":  true,
}

// subresources allowed after an identifier.
var subresources = map[string]bool{
	"jobs":           true,
	"jobs/analytics": true,
	"applications":   true,
	"status":         true,
}

// CanonicalPath replaces identifiers with :id to keep label cardinality bounded.
func CanonicalPath(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" || raw == "/" {
		return "/"
	}
	parts := strings.Split(strings.Trim(raw, "/"), "/")
	if len(parts) < 3 || parts[0] != "v1" || !idCollections[parts[1]] {
		return raw
	}
	if parts[1] == "users" && parts[2] == "candidate" {
		return raw
	}
	base := "/v1/" + parts[1] + "/:id"
	if len(parts) == 3 {
		return base
	}
	rest := strings.Join(parts[3:], "/")
	if subresources[rest] {
		return base + "/" + rest
	}
	return raw
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
