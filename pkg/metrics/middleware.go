package metrics

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	pdfmiddleware "github.com/pdf-saas/orchestrator/pkg/middleware"
)

var (
	latencyBuckets = []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120}
	uploadBuckets  = prometheus.ExponentialBuckets(64<<10, 4, 8)
)

const (
	// EnvLatencyBuckets is formatted like "0.1,1,10,60" (seconds)
	EnvLatencyBuckets = "PDFSAAS_LATENCY_BUCKETS"

	httpRequestsTotal   = "http_requests_total"
	httpRequestDuration = "http_request_duration_seconds"
	uploadBytes         = "upload_bytes"

	noFailedStage = "none"
)

// Middleware counts requests per route and failed pipeline stage, times them, and records
// the size of uploaded PDFs.
type Middleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	uploads  *prometheus.HistogramVec
}

func bucketsFromEnv() []float64 {
	conf, ok := os.LookupEnv(EnvLatencyBuckets)
	if !ok {
		return latencyBuckets
	}

	var buckets []float64
	for _, v := range strings.Split(conf, ",") {
		f64v, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			panic(err)
		}
		buckets = append(buckets, f64v)
	}
	return buckets
}

// NewMiddleware returns a new prometheus middleware for the provided server name.
func NewMiddleware(name string) *Middleware {
	constLabels := prometheus.Labels{"server": name}

	return &Middleware{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   pdfsaas,
			Name:        httpRequestsTotal,
			Help:        "number of HTTP requests by status code, method, route and failed pipeline stage",
			ConstLabels: constLabels,
		}, []string{"code", "method", "route", "failed_stage"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   pdfsaas,
			Name:        httpRequestDuration,
			Help:        "time spent serving HTTP requests, including every pipeline stage they run",
			ConstLabels: constLabels,
			Buckets:     bucketsFromEnv(),
		}, []string{"method", "route"}),
		uploads: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   pdfsaas,
			Name:        uploadBytes,
			Help:        "size of multipart upload requests",
			ConstLabels: constLabels,
			Buckets:     uploadBuckets,
		}, []string{"route"}),
	}
}

// Handler returns a handler for the middleware pattern.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return
		}
		route := rctx.RoutePattern()
		if route == "" {
			route = "unmatched"
		}

		failedStage := ww.Header().Get(pdfmiddleware.FailedStageHeader)
		if failedStage == "" {
			failedStage = noFailedStage
		}

		m.requests.WithLabelValues(strconv.Itoa(ww.Status()), r.Method, route, failedStage).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		if r.ContentLength > 0 && strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			m.uploads.WithLabelValues(route).Observe(float64(r.ContentLength))
		}
	})
}

// Register adds the collectors to reg.
func (m *Middleware) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.requests, m.latency, m.uploads} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MustRegisterDefault registers the collectors to the default registerer served by promhttp.Handler().
func (m *Middleware) MustRegisterDefault() {
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		panic(err)
	}
}
