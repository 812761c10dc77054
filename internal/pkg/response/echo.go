package response

import (
	"net/http"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
)

func EchoOK[T any](c echo.Context, h Writer, data T) error {
	return h.WriteSuccess(c.Request().Context(), c.Response().Writer, data)
}

// EchoCreated 201，用于创建战斗
func EchoCreated[T any](c echo.Context, h Writer, data T) error {
	return h.WriteStatus(c.Request().Context(), c.Response().Writer, http.StatusCreated, data)
}

func EchoError(c echo.Context, h Writer, err error) error {
	return h.WriteError(c.Request().Context(), c.Response().Writer, err)
}

// EchoBadRequest 请求体无法解析等参数错误
func EchoBadRequest(c echo.Context, h Writer, message string) error {
	return EchoError(c, h, xerrors.NewValidationError("request", message))
}
