package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "luma_companion",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "luma_companion",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "luma_companion",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	eventsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "luma_companion",
			Subsystem: "edge",
			Name:      "events_sent_total",
			Help:      "Total number of XDM events handed to the analytics collaborator.",
		},
		[]string{"event_type"},
	)

	configLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "luma_companion",
			Subsystem: "config",
			Name:      "loads_total",
			Help:      "Total number of configuration document loads.",
		},
		[]string{"kind", "outcome"},
	)

	offerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "luma_companion",
			Subsystem: "personalization",
			Name:      "offer_requests_total",
			Help:      "Total number of decision-scope offer lookups.",
		},
		[]string{"status"},
	)

	offerWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "luma_companion",
			Subsystem: "personalization",
			Name:      "offer_wait_seconds",
			Help:      "Time spent waiting for proposition responses.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		eventsSent,
		configLoads,
		offerRequests,
		offerWaitDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// IncEventSent records an XDM event handed to the analytics collaborator.
func IncEventSent(eventType string) {
	if eventType == "" {
		eventType = "unknown"
	}
	eventsSent.WithLabelValues(eventType).Inc()
}

// IncConfigLoad records a configuration document load outcome.
func IncConfigLoad(kind, outcome string) {
	configLoads.WithLabelValues(kind, outcome).Inc()
}

// RecordOfferRequest records an offer lookup outcome and its wait time.
func RecordOfferRequest(status string, wait time.Duration) {
	if wait <= 0 {
		wait = time.Millisecond
	}
	offerRequests.WithLabelValues(status).Inc()
	offerWaitDuration.Observe(wait.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "products" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/products"
	}
	return "/products/:sku"
}
