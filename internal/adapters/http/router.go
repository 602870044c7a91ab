package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kirillkom/personal-reading-tracker/internal/core/ports"
	"github.com/kirillkom/personal-reading-tracker/internal/observability/metrics"
)

// Router wires the reading tracker's HTTP surface. Metrics are optional so
// handler tests can construct a bare router.
type Router struct {
	recommender ports.Recommender
	discoverer  ports.Discoverer
	library     ports.LibraryService
	recLog      ports.RecommendationLog
	importer    ports.BookImporter
	importRead  ports.ImportReader

	service string
	metrics *metrics.HTTPServerMetrics

	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
	inFlightWait   time.Duration
}

func NewRouter(
	recommender ports.Recommender,
	discoverer ports.Discoverer,
	library ports.LibraryService,
	recLog ports.RecommendationLog,
	importer ports.BookImporter,
	importRead ports.ImportReader,
) *Router {
	return &Router{
		recommender: recommender,
		discoverer:  discoverer,
		library:     library,
		recLog:      recLog,
		importer:    importer,
		importRead:  importRead,
	}
}

// WithMetrics attaches the metrics sink recorded by the handlers.
func (rt *Router) WithMetrics(service string, m *metrics.HTTPServerMetrics) *Router {
	rt.service = service
	rt.metrics = m
	return rt
}

// WithTrafficControl enables request rate limiting and backpressure.
func (rt *Router) WithTrafficControl(rps float64, burst, maxInFlight int, wait time.Duration) *Router {
	rt.rateLimitRPS = rps
	rt.rateLimitBurst = burst
	rt.maxInFlight = maxInFlight
	rt.inFlightWait = wait
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/books", rt.books)
	mux.HandleFunc("/v1/books/", rt.bookByID)
	mux.HandleFunc("/v1/recommendations", rt.recommendations)
	mux.HandleFunc("/v1/recommendations/reject", rt.rejectRecommendation)
	mux.HandleFunc("/v1/discover", rt.discover)
	mux.HandleFunc("/v1/liked", rt.liked)
	mux.HandleFunc("/v1/liked/", rt.likedByID)
	mux.HandleFunc("/v1/imports", rt.uploadImport)
	mux.HandleFunc("/v1/imports/", rt.importByID)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.inFlightWait)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
