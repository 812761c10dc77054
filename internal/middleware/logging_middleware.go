package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/ctxkey"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/trace"
)

// LoggingConfig 请求日志配置
type LoggingConfig struct {
	// SkipPaths 前缀匹配，不记录日志（探活、指标、长连接）
	SkipPaths []string

	// DetailedLog 记录查询串、UA 与脱敏后的请求头
	DetailedLog bool

	// LogRequestBody 记录请求体（仅开发环境）
	LogRequestBody bool

	// MaxBodySize 请求体最多记录的字节数
	MaxBodySize int64

	// SlowThreshold 超过该耗时的成功请求以 Warn 记录，0 表示不检查
	SlowThreshold time.Duration

	// SensitiveHeaders 需要脱敏的 Header
	SensitiveHeaders []string
}

// DefaultLoggingConfig 默认日志配置
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SkipPaths:     []string{"/health", "/metrics", "/ws/battle"},
		MaxBodySize:   4 * 1024,
		SlowThreshold: 500 * time.Millisecond,
		SensitiveHeaders: []string{
			"Authorization",
			"Cookie",
			"Sec-Websocket-Key",
		},
	}
}

// LoggingMiddleware 日志中间件
func LoggingMiddleware(logger log.Logger) echo.MiddlewareFunc {
	return LoggingMiddlewareWithConfig(logger, DefaultLoggingConfig())
}

// LoggingMiddlewareWithConfig 带配置的日志中间件
// 每个请求只输出一条完成日志，战斗路由附带 battle_id 与控制者
func LoggingMiddlewareWithConfig(logger log.Logger, config *LoggingConfig) echo.MiddlewareFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}
	logger = logger.With("component", "http")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if shouldSkip(req.URL.Path, config.SkipPaths) {
				return next(c)
			}

			start := time.Now()
			ctx := req.Context()

			fields := []any{
				log.String("method", req.Method),
				log.String("route", c.Path()),
				log.String("client_ip", c.RealIP()),
				log.String("trace_id", trace.GetTraceID(ctx)),
			}
			if config.DetailedLog {
				fields = append(fields, detailFields(c, config)...)
			}

			err := next(c)

			status := c.Response().Status
			fields = append(fields,
				log.Int("status_code", status),
				log.Elapsed("duration", start),
			)
			// 认证中间件挂在路由组上，此时已写入 Echo Context
			if userID, ok := c.Get(string(ctxkey.UserID)).(string); ok && userID != "" {
				fields = append(fields, log.String("user_id", userID))
			}
			if battleID := c.Param("battle_id"); battleID != "" {
				fields = append(fields, log.String("battle_id", battleID))
			}

			switch {
			case err != nil:
				logger.ErrorContext(ctx, "请求处理出错", append(fields, log.Any("error", err))...)
			case status >= http.StatusInternalServerError:
				logger.ErrorContext(ctx, "请求完成（服务器错误）", fields...)
			case status >= http.StatusBadRequest:
				logger.WarnContext(ctx, "请求完成（客户端错误）", fields...)
			case config.SlowThreshold > 0 && time.Since(start) > config.SlowThreshold:
				logger.WarnContext(ctx, "请求完成（慢请求）", fields...)
			default:
				logger.InfoContext(ctx, "请求完成", fields...)
			}
			return err
		}
	}
}

func detailFields(c echo.Context, config *LoggingConfig) []any {
	req := c.Request()
	fields := []any{log.String("user_agent", req.UserAgent())}
	if req.URL.RawQuery != "" {
		fields = append(fields, log.String("query", redactQuery(req.URL.RawQuery)))
	}
	if headers := sanitizeHeaders(req.Header, config.SensitiveHeaders); len(headers) > 0 {
		fields = append(fields, log.Any("headers", headers))
	}
	if config.LogRequestBody {
		if body := peekBody(req, config.MaxBodySize); body != "" {
			fields = append(fields, log.String("request_body", body))
		}
	}
	return fields
}

// shouldSkip 前缀匹配跳过路径
func shouldSkip(path string, skipPaths []string) bool {
	for _, p := range skipPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// sanitizeHeaders 脱敏敏感 Header，只保留每个 Header 的第一个值
func sanitizeHeaders(headers http.Header, sensitive []string) map[string]string {
	result := make(map[string]string, len(headers))
	for k, v := range headers {
		if len(v) == 0 {
			continue
		}
		result[k] = v[0]
		for _, s := range sensitive {
			if strings.EqualFold(k, s) {
				result[k] = "***REDACTED***"
				break
			}
		}
	}
	return result
}

// redactQuery 实时通道的 token 参数不落日志
func redactQuery(raw string) string {
	parts := strings.Split(raw, "&")
	for i, p := range parts {
		if strings.HasPrefix(p, "token=") {
			parts[i] = "token=***REDACTED***"
		}
	}
	return strings.Join(parts, "&")
}

// peekBody 读取最多 maxSize 字节用于日志，并把完整请求体还给后续处理器
func peekBody(req *http.Request, maxSize int64) string {
	if req.Body == nil || req.Body == http.NoBody {
		return ""
	}
	head, err := io.ReadAll(io.LimitReader(req.Body, maxSize))
	if err != nil {
		return ""
	}
	req.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), req.Body), Closer: req.Body}

	body := string(head)
	if int64(len(head)) >= maxSize {
		body += "... (truncated)"
	}
	return body
}

type readCloser struct {
	io.Reader
	io.Closer
}
