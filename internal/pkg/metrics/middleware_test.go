package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/ctxkey"
)

func TestMiddleware_RecordsRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetricsWithRegistry("test", reg)

	e := echo.New()
	e.Use(MiddlewareWith(m))
	var method string
	e.GET("/api/v1/battle/battles/:battle_id", func(c echo.Context) error {
		method = ctxkey.GetString(c.Request().Context(), ctxkey.HTTPMethod)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/battle/battles/abc", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.MethodGet, method)
	count := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(GetServiceName(), "/api/v1/battle/battles/:battle_id", "GET", "200"))
	assert.Equal(t, float64(1), count)
}

func TestMiddleware_SkipsHealthCheck(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetricsWithRegistry("test", reg)

	e := echo.New()
	e.Use(MiddlewareWith(m))
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, 0, testutil.CollectAndCount(m.RequestsTotal))
}
