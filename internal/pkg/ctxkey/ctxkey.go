// Package ctxkey 集中定义跨包使用的 context key，避免各包自定义类型互相覆盖。
package ctxkey

import "context"

type ContextKey string

const (
	TraceID    ContextKey = "trace_id"
	Language   ContextKey = "language"
	HTTPMethod ContextKey = "http_method"

	// 认证中间件或实时令牌写入
	UserID      ContextKey = "user_id"
	CharacterID ContextKey = "character_id"
	BattleID    ContextKey = "battle_id"

	// CurrentUser 存在 echo.Context 而不是 request context 里
	CurrentUser ContextKey = "current_user"
)

func WithValue(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// GetString 不存在或类型不符时返回空串
func GetString(ctx context.Context, key ContextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}
