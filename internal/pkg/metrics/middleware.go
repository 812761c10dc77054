package metrics

import (
	"strconv"
	"time"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/ctxkey"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics 控制面 HTTP 指标，route 标签使用路由模板
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

var DefaultHTTPMetrics = NewHTTPMetricsWithRegistry(Namespace, prometheus.DefaultRegisterer)

func NewHTTPMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *HTTPMetrics {
	f := promauto.With(registerer)
	return &HTTPMetrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route template, method and status",
		}, []string{"service", "route", "method", "status_code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route template",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"service", "route"}),
	}
}

// 探活与抓取请求不计入
var unmeasured = map[string]bool{"/metrics": true, "/health": true}

// Middleware 采集请求指标，同时把 HTTP 方法写入 context
func Middleware() echo.MiddlewareFunc {
	return MiddlewareWith(DefaultHTTPMetrics)
}

func MiddlewareWith(m *HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(ctxkey.WithValue(req.Context(), ctxkey.HTTPMethod, req.Method)))
			if unmeasured[req.URL.Path] {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unknown"
			}
			service := GetServiceName()
			m.RequestsTotal.WithLabelValues(service, route, req.Method, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(service, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// EchoHandler /metrics 抓取端点
func EchoHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
