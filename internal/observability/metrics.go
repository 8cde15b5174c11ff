package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names exported by the storefront.
const (
	MetricHTTPRequests   = "storefront_http_requests_total"
	MetricHTTPDuration   = "storefront_http_request_duration_seconds"
	MetricProductFetches = "storefront_product_fetch_total"
	MetricMountedViews   = "storefront_mounted_views"
	MetricCartAdds       = "storefront_cart_adds_total"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fetches         *prometheus.CounterVec
	mountedViews    prometheus.Gauge
	cartAdds        prometheus.Counter
}

// NewMetrics initialises the registry and the storefront metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricHTTPRequests,
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricHTTPDuration,
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricProductFetches,
		Help: "Catalog API product requests by outcome.",
	}, []string{"outcome"})
	mounted := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricMountedViews,
		Help: "Product views currently mounted.",
	})
	cartAdds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricCartAdds,
		Help: "Products added to carts.",
	})
	registry.MustRegister(requests, duration, fetches, mounted, cartAdds)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		fetches:         fetches,
		mountedViews:    mounted,
		cartAdds:        cartAdds,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
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

// ObserveFetch counts one catalog request outcome.
func (m *Metrics) ObserveFetch(outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
}

// SetMountedViews records the number of mounted views.
func (m *Metrics) SetMountedViews(n int) {
	if m == nil {
		return
	}
	m.mountedViews.Set(float64(n))
}

// IncCartAdds counts one product added to a cart.
func (m *Metrics) IncCartAdds() {
	if m == nil {
		return
	}
	m.cartAdds.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
