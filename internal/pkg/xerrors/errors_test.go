package xerrors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromCodeFillsCategoryAndLevel(t *testing.T) {
	err := FromCode(CodeBattleNotFound)
	require.Equal(t, "battle", err.Category)
	require.Equal(t, LevelWarn, err.Level)
	require.Equal(t, "战斗不存在或已过期", err.Message)
	require.False(t, err.Retryable)

	cacheErr := FromCode(CodeCacheError)
	require.Equal(t, LevelCritical, cacheErr.Level)
	require.True(t, cacheErr.Retryable)
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeSuccess, http.StatusOK},
		{CodeInvalidToken, http.StatusUnauthorized},
		{CodeBattleNotFound, http.StatusNotFound},
		{CodeBattleNotParticipant, http.StatusForbidden},
		{CodeBattleNotOwner, http.StatusForbidden},
		{CodeBattleAlreadyEnded, http.StatusConflict},
		{CodeBattleTurnResolved, http.StatusConflict},
		{CodeBattleInvalidAction, http.StatusBadRequest},
		{CodeStageNotFound, http.StatusNotFound},
		{CodeCacheError, http.StatusServiceUnavailable},
		{CodeInternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			require.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestWrapKeepsExistingAppError(t *testing.T) {
	inner := NewNotOwnerError("b1", "u1")
	wrapped := fmt.Errorf("submit: %w", inner)

	require.Same(t, inner, Wrap(wrapped, CodeInternalError, "ignored"))
	require.True(t, HasCode(wrapped, CodeBattleNotOwner))
	require.False(t, HasCode(errors.New("plain"), CodeBattleNotOwner))
	require.Nil(t, Wrap(nil, CodeInternalError, "nil"))
}

func TestWrapPlainError(t *testing.T) {
	base := errors.New("redis down")
	appErr := Wrap(base, CodeCacheError, "保存战斗失败")
	require.Equal(t, CodeCacheError, appErr.Code)
	require.ErrorIs(t, appErr, base)
	require.Contains(t, appErr.Error(), "redis down")
}

func TestUnknownCodeFallsBackToInternal(t *testing.T) {
	err := FromCode(ErrorCode(42))
	require.Equal(t, "内部服务错误", err.Message)
	require.Equal(t, http.StatusInternalServerError, GetHTTPStatus(ErrorCode(42)))
	require.False(t, ErrorCode(42).Known())
}

func TestLogValueCarriesMetadata(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	err := NewTurnResolvedError("b1", 3, 4).WithOperation("battle.submit")
	logger.Info("rejected", slog.Any("app_error", err))

	out := buf.String()
	require.Contains(t, out, "app_error.code=830006")
	require.Contains(t, out, "app_error.operation=battle.submit")
	require.Contains(t, out, "app_error.expected_turn=3")
}
