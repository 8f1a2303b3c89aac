package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openaudit/openaudit-visualizer/internal/query"
)

// Metrics collects the Prometheus metrics of the visualizer.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	queryRequests    *prometheus.CounterVec
	queryFetches     *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
}

// NewMetrics initialises the registry and its collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openaudit_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openaudit_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	upstream := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openaudit_upstream_requests_total",
		Help: "Backend API calls by method, route template and status code. Status 0 is a network failure.",
	}, []string{"method", "route", "code"})
	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openaudit_upstream_request_duration_seconds",
		Help:    "Backend API call duration per route template.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	queryRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openaudit_query_requests_total",
		Help: "Query cache lookups by resource, including joined in-flight fetches.",
	}, []string{"resource"})
	queryFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openaudit_query_fetches_total",
		Help: "Upstream fetches started by the query cache, by resource and outcome.",
	}, []string{"resource", "status"})
	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openaudit_query_fetch_duration_seconds",
		Help:    "Duration of query cache fetches per resource.",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})
	registry.MustRegister(requests, duration, upstream, upstreamDuration, queryRequests, queryFetches, fetchDuration)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		upstreamTotal:    upstream,
		upstreamDuration: upstreamDuration,
		queryRequests:    queryRequests,
		queryFetches:     queryFetches,
		fetchDuration:    fetchDuration,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveUpstream records one backend API call.
func (m *Metrics) ObserveUpstream(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.upstreamDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRequest counts a query cache lookup.
func (m *Metrics) ObserveRequest(resource string) {
	if m == nil {
		return
	}
	m.queryRequests.WithLabelValues(resource).Inc()
}

// ObserveFetch records a settled query cache fetch.
func (m *Metrics) ObserveFetch(resource string, status query.Status, duration time.Duration) {
	if m == nil {
		return
	}
	m.queryFetches.WithLabelValues(resource, status.String()).Inc()
	m.fetchDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
