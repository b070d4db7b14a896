package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics 记录请求数量与耗时
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics 在给定 registerer 上注册 HTTP 指标
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{requests: requests, duration: duration}
}

// Observe 记录一次请求
func (m *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// DashboardMetrics 仪表盘查询耗时与缓存命中
type DashboardMetrics struct {
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

// NewDashboardMetrics 注册仪表盘指标
func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	if reg == nil {
		return &DashboardMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_query_duration_seconds",
		Help:    "Duration of dashboard aggregation queries in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"operation"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_cache_lookups_total",
		Help: "Dashboard cache lookups by operation and result.",
	}, []string{"operation", "result"})
	reg.MustRegister(duration, cache)
	return &DashboardMetrics{duration: duration, cache: cache}
}

// ObserveQuery 记录一次聚合查询耗时
func (m *DashboardMetrics) ObserveQuery(operation string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(elapsed.Seconds())
}

// IncCache 记录缓存命中或未命中
func (m *DashboardMetrics) IncCache(operation string, hit bool) {
	if m == nil || m.cache == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(normalizeLabel(operation), result).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
