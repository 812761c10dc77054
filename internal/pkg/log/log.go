package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/ctxkey"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

// Logger 接口定义（在消费端定义）
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, err error, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

// StructuredLogger slog 的包装器
type StructuredLogger struct {
	logger *slog.Logger
}

var globalLogger atomic.Pointer[StructuredLogger]

// Init 初始化全局日志器：生产环境输出 JSON，其余环境输出带源码位置的文本
func Init(level slog.Level, environment string) {
	globalLogger.Store(newStructured(os.Stdout, level, environment))
	slog.SetDefault(globalLogger.Load().logger)
}

func newStructured(w io.Writer, level slog.Level, environment string) *StructuredLogger {
	var handler slog.Handler
	if environment == "production" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, AddSource: true})
	}
	return &StructuredLogger{logger: slog.New(NewContextHandler(handler))}
}

// GetLogger 获取全局 logger，未初始化时使用开发环境配置
func GetLogger() Logger {
	if l := globalLogger.Load(); l != nil {
		return l
	}
	globalLogger.CompareAndSwap(nil, newStructured(os.Stdout, slog.LevelInfo, "development"))
	return globalLogger.Load()
}

// NewLogger 创建新的 logger 实例，handler 会被包上 ContextHandler
func NewLogger(handler slog.Handler) Logger {
	return &StructuredLogger{logger: slog.New(NewContextHandler(handler))}
}

// NewNopLogger 丢弃所有输出的 logger（测试用）
func NewNopLogger() Logger {
	return &StructuredLogger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *StructuredLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *StructuredLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *StructuredLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }

func (l *StructuredLogger) Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, slog.Any("error", err))
	}
	l.logger.Error(msg, args...)
}

func (l *StructuredLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *StructuredLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *StructuredLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *StructuredLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *StructuredLogger) With(args ...any) Logger {
	return &StructuredLogger{logger: l.logger.With(args...)}
}

func (l *StructuredLogger) WithGroup(name string) Logger {
	return &StructuredLogger{logger: l.logger.WithGroup(name)}
}

// ContextHandler 从 context 补充 trace_id / user_id / battle_id
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler 创建上下文 handler
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, k := range []ctxkey.ContextKey{ctxkey.TraceID, ctxkey.UserID, ctxkey.BattleID} {
		if v := ctxkey.GetString(ctx, k); v != "" {
			r.AddAttrs(slog.String(string(k), v))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

// WithBattle 把战斗 ID 放入 context，之后的 *Context 日志自动带上 battle_id
func WithBattle(ctx context.Context, battleID string) context.Context {
	if battleID == "" || ctxkey.GetString(ctx, ctxkey.BattleID) == battleID {
		return ctx
	}
	return ctxkey.WithValue(ctx, ctxkey.BattleID, battleID)
}

// Info 使用全局 logger
func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

// LogAppError 按 AppError 的级别记录
func LogAppError(ctx context.Context, msg string, appErr *xerrors.AppError) {
	logger := GetLogger()
	attr := slog.Any("app_error", appErr)
	switch appErr.Level {
	case xerrors.LevelCritical, xerrors.LevelError:
		logger.ErrorContext(ctx, msg, attr)
	case xerrors.LevelWarn:
		logger.WarnContext(ctx, msg, attr)
	default:
		logger.InfoContext(ctx, msg, attr)
	}
}

// LogBattleEvent 记录战斗生命周期事件（started / turn_resolved / ended）
func LogBattleEvent(ctx context.Context, event, battleID string, turn int, args ...any) {
	attrs := append([]any{
		slog.String("battle_event", event),
		slog.Int("turn", turn),
	}, args...)
	GetLogger().InfoContext(WithBattle(ctx, battleID), "battle event", attrs...)
}

func String(key, value string) slog.Attr          { return slog.String(key, value) }
func Int(key string, value int) slog.Attr         { return slog.Int(key, value) }
func Int64(key string, value int64) slog.Attr     { return slog.Int64(key, value) }
func Float64(key string, value float64) slog.Attr { return slog.Float64(key, value) }
func Bool(key string, value bool) slog.Attr       { return slog.Bool(key, value) }
func Any(key string, value any) slog.Attr         { return slog.Any(key, value) }

// Elapsed 从 start 到现在的毫秒数
func Elapsed(key string, start time.Time) slog.Attr {
	return slog.Int64(key+"_ms", time.Since(start).Milliseconds())
}
