package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/auth"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/response"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

type body struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) body {
	t.Helper()
	var b body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

func newAuthEcho(tokens *auth.TokenManager) *echo.Echo {
	respWriter := response.NewResponseHandler(log.NewNopLogger(), "development")
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		user, err := GetCurrentUser(c)
		if err != nil {
			return response.EchoError(c, respWriter, err)
		}
		return response.EchoOK(c, respWriter, user)
	}, AuthMiddleware(respWriter, log.NewNopLogger(), tokens))
	return e
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	token, err := tokens.Issue("player-1", "hero-1")
	require.NoError(t, err)

	tests := []struct {
		name      string
		headers   map[string]string
		status    int
		user      string
		character string
	}{
		{"网关注入身份", map[string]string{HeaderUserID: "player-2", HeaderCharacterID: "hero-2"}, http.StatusOK, "player-2", "hero-2"},
		{"Bearer 令牌", map[string]string{"Authorization": "Bearer " + token}, http.StatusOK, "player-1", "hero-1"},
		{"头部优先于令牌", map[string]string{HeaderUserID: "player-3", "Authorization": "Bearer " + token}, http.StatusOK, "player-3", ""},
		{"令牌无效", map[string]string{"Authorization": "Bearer broken"}, http.StatusUnauthorized, "", ""},
		{"缺少身份", nil, http.StatusUnauthorized, "", ""},
	}

	e := newAuthEcho(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				return
			}
			var user struct {
				UserID      string
				CharacterID string
			}
			require.NoError(t, json.Unmarshal(decode(t, rec).Data, &user))
			assert.Equal(t, tt.user, user.UserID)
			assert.Equal(t, tt.character, user.CharacterID)
		})
	}
}

func TestGetCurrentUser_Missing(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := GetCurrentUserID(c)
	var appErr *xerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, xerrors.CodeAuthenticationFailed, appErr.Code)
}

func TestErrorMiddleware(t *testing.T) {
	respWriter := response.NewResponseHandler(log.NewNopLogger(), "production")

	tests := []struct {
		name   string
		err    error
		status int
		code   xerrors.ErrorCode
	}{
		{"业务错误", xerrors.NewBattleNotFoundError("b-1"), http.StatusNotFound, xerrors.CodeBattleNotFound},
		{"Echo 404", echo.ErrNotFound, http.StatusNotFound, xerrors.CodeResourceNotFound},
		{"Echo 400", echo.NewHTTPError(http.StatusBadRequest, "bad"), http.StatusBadRequest, xerrors.CodeInvalidParams},
		{"未知错误", errors.New("boom"), http.StatusInternalServerError, xerrors.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/x", func(echo.Context) error { return tt.err }, ErrorMiddleware(respWriter, log.NewNopLogger()))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code.ToInt(), decode(t, rec).Code)
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	respWriter := response.NewResponseHandler(log.NewNopLogger(), "production")
	e := echo.New()
	e.GET("/panic", func(echo.Context) error { panic("resolver exploded") }, RecoveryMiddleware(respWriter, log.NewNopLogger()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, xerrors.CodeInternalError.ToInt(), decode(t, rec).Code)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewLogger(slog.NewJSONHandler(&buf, nil))

	cfg := DefaultLoggingConfig()
	cfg.DetailedLog = true
	cfg.LogRequestBody = true
	cfg.MaxBodySize = 8

	e := echo.New()
	e.Use(LoggingMiddlewareWithConfig(logger, cfg))
	var received string
	e.POST("/api/v1/battle/battles/:battle_id/actions", func(c echo.Context) error {
		raw, err := io.ReadAll(c.Request().Body)
		require.NoError(t, err)
		received = string(raw)
		return c.NoContent(http.StatusOK)
	})
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	t.Run("完整请求体传给处理器", func(t *testing.T) {
		buf.Reset()
		payload := `{"actions":[{"actor_id":"hero-1","type":"attack"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/battle/battles/b-1/actions?token=secret&x=1", strings.NewReader(payload))
		e.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, payload, received)
		out := buf.String()
		assert.Contains(t, out, `"battle_id":"b-1"`)
		assert.Contains(t, out, "(truncated)")
		assert.NotContains(t, out, "secret")
	})

	t.Run("跳过探活", func(t *testing.T) {
		buf.Reset()
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Empty(t, buf.String())
	})
}
