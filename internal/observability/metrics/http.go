package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	batchesTotal          *prometheus.CounterVec
	batchSize             *prometheus.HistogramVec
	strategyCandidates    *prometheus.HistogramVec
	providerFailuresTotal *prometheus.CounterVec
	replacementsTotal     *prometheus.CounterVec
	discoverTotal         *prometheus.CounterVec
	cacheLookupsTotal     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prt",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prt",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "prt",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	batchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prt",
			Subsystem: "recommend",
			Name:      "batches_total",
			Help:      "Total assembled recommendation batches by outcome.",
		},
		[]string{"service", "outcome"},
	)
	batchSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prt",
			Subsystem: "recommend",
			Name:      "batch_size",
			Help:      "Distribution of delivered batch sizes.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"service"},
	)
	strategyCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prt",
			Subsystem: "recommend",
			Name:      "strategy_candidates",
			Help:      "Candidates contributed per strategy before batch assembly.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "strategy"},
	)
	providerFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prt",
			Subsystem: "provider",
			Name:      "failures_total",
			Help:      "Total provider calls degraded to zero candidates.",
		},
		[]string{"service", "provider"},
	)
	replacementsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prt",
			Subsystem: "recommend",
			Name:      "replacements_total",
			Help:      "Total replacement requests by resolution tier.",
		},
		[]string{"service", "tier"},
	)
	discoverTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prt",
			Subsystem: "discover",
			Name:      "requests_total",
			Help:      "Total free-text discovery requests by outcome.",
		},
		[]string{"service", "outcome"},
	)
	cacheLookupsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prt",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Enrichment cache lookups by result.",
		},
		[]string{"service", "result"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		batchesTotal,
		batchSize,
		strategyCandidates,
		providerFailuresTotal,
		replacementsTotal,
		discoverTotal,
		cacheLookupsTotal,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		batchesTotal:          batchesTotal,
		batchSize:             batchSize,
		strategyCandidates:    strategyCandidates,
		providerFailuresTotal: providerFailuresTotal,
		replacementsTotal:     replacementsTotal,
		discoverTotal:         discoverTotal,
		cacheLookupsTotal:     cacheLookupsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/books/"):
		return "/v1/books/{book_id}"
	case strings.HasPrefix(path, "/v1/imports/"):
		return "/v1/imports/{job_id}"
	case strings.HasPrefix(path, "/v1/liked/"):
		return "/v1/liked/{book_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordBatch(service string, size int) {
	outcome := "full"
	switch {
	case size == 0:
		outcome = "empty"
	case size < 5:
		outcome = "partial"
	}
	m.batchesTotal.WithLabelValues(service, outcome).Inc()
	m.batchSize.WithLabelValues(service).Observe(float64(size))
}

func (m *HTTPServerMetrics) RecordStrategyCandidates(service, strategy string, count int) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.strategyCandidates.WithLabelValues(service, strategy).Observe(float64(count))
}

func (m *HTTPServerMetrics) RecordProviderFailure(service, provider string) {
	if provider == "" {
		provider = "unknown"
	}
	m.providerFailuresTotal.WithLabelValues(service, provider).Inc()
}

func (m *HTTPServerMetrics) RecordReplacement(service, tier string) {
	if tier == "" {
		tier = "exhausted"
	}
	m.replacementsTotal.WithLabelValues(service, tier).Inc()
}

func (m *HTTPServerMetrics) RecordDiscover(service, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.discoverTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordCacheLookup(service string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(service, result).Inc()
}

// PipelineObserver binds the service label so the recommendation pipeline
// can record observations without carrying label plumbing.
type PipelineObserver struct {
	m       *HTTPServerMetrics
	service string
}

func (m *HTTPServerMetrics) Pipeline(service string) *PipelineObserver {
	return &PipelineObserver{m: m, service: service}
}

func (o *PipelineObserver) StrategyCandidates(strategy string, count int) {
	o.m.RecordStrategyCandidates(o.service, strategy, count)
}

func (o *PipelineObserver) ProviderFailure(provider string) {
	o.m.RecordProviderFailure(o.service, provider)
}

func (o *PipelineObserver) CacheLookup(hit bool) {
	o.m.RecordCacheLookup(o.service, hit)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
