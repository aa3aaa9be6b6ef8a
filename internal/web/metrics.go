package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vibematch_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vibematch_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	recommendationsServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vibematch_recommendations_total",
		Help: "Successful recommendation requests by mode",
	}, []string{"mode"})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, recommendationsServed)
}

// observeRequests records request counts and latency per chi route.
func observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
