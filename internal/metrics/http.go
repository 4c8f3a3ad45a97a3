package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP collects request counts and latencies per route pattern
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	points   prometheus.Histogram
}

// NewHTTP creates the collectors and registers them with reg
func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bixi_http_requests_total",
			Help: "HTTP requests served, by route and status code",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bixi_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		points: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bixi_figure_points",
			Help:    "Points plotted per figure request",
			Buckets: prometheus.ExponentialBuckets(100, 4, 8),
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.points)
	return m
}

// ObservePoints records the size of a rendered figure
func (m *HTTP) ObservePoints(n int) {
	m.points.Observe(float64(n))
}

// Middleware times each request. It must run inside a chi router so the
// matched route pattern is known.
func (m *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
