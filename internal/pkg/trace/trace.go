package trace

import (
	"context"
	"net/http"
	"strings"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/ctxkey"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HeaderTraceID = "X-Trace-Id"

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return ctxkey.WithValue(ctx, ctxkey.TraceID, traceID)
}

func GetTraceID(ctx context.Context) string {
	return ctxkey.GetString(ctx, ctxkey.TraceID)
}

// NewID 32 位十六进制，与 W3C trace-id 等长
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// EnsureTraceID 供 WebSocket 消息和定时任务这类没有请求头的入口使用
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, NewID())
}

// FromHeader 依次取 X-Trace-Id、X-Request-Id、traceparent，都没有就新生成
func FromHeader(h http.Header) string {
	for _, name := range []string{HeaderTraceID, "X-Request-Id"} {
		if v := h.Get(name); v != "" {
			return v
		}
	}
	// traceparent: 00-<trace-id>-<parent-id>-<flags>
	if parts := strings.Split(h.Get("Traceparent"), "-"); len(parts) == 4 && len(parts[1]) == 32 {
		return parts[1]
	}
	return NewID()
}

// Middleware 写入请求 context 并回写响应头
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := FromHeader(c.Request().Header)
			c.SetRequest(c.Request().WithContext(WithTraceID(c.Request().Context(), id)))
			c.Response().Header().Set(HeaderTraceID, id)
			return next(c)
		}
	}
}
