package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	importTotal    *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	importInFlight prometheus.Gauge
	booksImported  *prometheus.HistogramVec
	queueLag       *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	importTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prt",
			Subsystem: "worker",
			Name:      "import_process_total",
			Help:      "Total processed import jobs by status.",
		},
		[]string{"service", "status"},
	)
	importDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prt",
			Subsystem: "worker",
			Name:      "import_process_duration_seconds",
			Help:      "Import job processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	importInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "prt",
			Subsystem: "worker",
			Name:      "import_process_in_flight",
			Help:      "Number of in-flight import jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	booksImported := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prt",
			Subsystem: "worker",
			Name:      "books_imported",
			Help:      "Books added to the library per successful import job.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prt",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between upload and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(importTotal, importDuration, importInFlight, booksImported, queueLag)

	return &WorkerMetrics{
		registry:       registry,
		importTotal:    importTotal,
		importDuration: importDuration,
		importInFlight: importInFlight,
		booksImported:  booksImported,
		queueLag:       queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartImport() {
	m.importInFlight.Inc()
}

func (m *WorkerMetrics) FinishImport(service string, duration time.Duration, err error) {
	m.importInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.importTotal.WithLabelValues(service, status).Inc()
	m.importDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveBooksImported(service string, count int) {
	if count < 0 {
		return
	}
	m.booksImported.WithLabelValues(service).Observe(float64(count))
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
