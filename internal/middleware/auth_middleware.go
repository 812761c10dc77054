package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/auth"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/ctxkey"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/response"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

// 网关完成认证后注入的身份头
const (
	HeaderUserID      = "X-User-ID"
	HeaderCharacterID = "X-Character-ID"
)

// CurrentUser 当前请求的控制者
type CurrentUser struct {
	UserID      string
	CharacterID string // 可能为空
}

// AuthMiddleware 身份来源依次为网关头、Bearer 令牌（tokens 非空时）。
// 路由带 :battle_id 时一并写入 context，日志会带上该字段。
func AuthMiddleware(respWriter response.Writer, logger log.Logger, tokens *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			current, err := identify(c.Request().Header.Get, tokens)
			if err != nil {
				logger.WarnContext(ctx, "认证失败", log.Any("error", err))
				return respWriter.WriteError(ctx, c.Response().Writer, err)
			}

			ctx = withIdentity(ctx, current)
			if id := c.Param("battle_id"); id != "" {
				ctx = log.WithBattle(ctx, id)
			}
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(string(ctxkey.CurrentUser), current)
			c.Set(string(ctxkey.UserID), current.UserID)

			logger.DebugContext(ctx, "用户认证成功", log.Bool("has_character", current.CharacterID != ""))
			return next(c)
		}
	}
}

func identify(header func(string) string, tokens *auth.TokenManager) (*CurrentUser, error) {
	current := &CurrentUser{UserID: header(HeaderUserID), CharacterID: header(HeaderCharacterID)}
	if current.UserID != "" {
		return current, nil
	}

	raw, ok := bearerToken(header("Authorization"))
	if !ok || tokens == nil {
		return nil, xerrors.New(xerrors.CodeAuthenticationFailed, "未授权访问: 缺少用户身份信息").
			WithOperation("middleware.auth")
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	current.UserID = claims.Subject
	if current.CharacterID == "" {
		current.CharacterID = claims.CharacterID
	}
	return current, nil
}

func withIdentity(ctx context.Context, u *CurrentUser) context.Context {
	ctx = ctxkey.WithValue(ctx, ctxkey.UserID, u.UserID)
	if u.CharacterID != "" {
		ctx = ctxkey.WithValue(ctx, ctxkey.CharacterID, u.CharacterID)
	}
	return ctx
}

func bearerToken(value string) (string, bool) {
	const prefix = "Bearer "
	if len(value) <= len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(value[len(prefix):]), true
}

// GetCurrentUser 读取 AuthMiddleware 写入的控制者
func GetCurrentUser(c echo.Context) (*CurrentUser, error) {
	u, ok := c.Get(string(ctxkey.CurrentUser)).(*CurrentUser)
	if !ok || u == nil {
		return nil, xerrors.New(xerrors.CodeAuthenticationFailed, "未找到用户信息")
	}
	return u, nil
}

func GetCurrentUserID(c echo.Context) (string, error) {
	u, err := GetCurrentUser(c)
	if err != nil {
		return "", err
	}
	return u.UserID, nil
}
