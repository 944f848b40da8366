package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
)

// RouteFunc maps a request to a low-cardinality route label.
type RouteFunc func(r *http.Request) string

type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	route    RouteFunc
}

func NewHTTPMetrics(reg prometheus.Registerer, route RouteFunc) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carpool",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carpool",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		route: route,
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrap(w)

		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if m.route != nil {
			route = m.route(r)
		}
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
	})
}

// RouteTemplate rebuilds the registered pattern of a request, for example
// /trips/:id/bookings, by putting parameter names back in place of values.
func RouteTemplate(router *httprouter.Router) RouteFunc {
	return func(r *http.Request) string {
		handle, params, _ := router.Lookup(r.Method, r.URL.Path)
		if handle == nil {
			return "unmatched"
		}
		if len(params) == 0 {
			return r.URL.Path
		}

		segments := strings.Split(r.URL.Path, "/")
		next := 0
		for i, segment := range segments {
			if next < len(params) && segment == params[next].Value {
				segments[i] = ":" + params[next].Key
				next++
			}
		}
		return strings.Join(segments, "/")
	}
}
