package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/response"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

// Echo 自身返回的 HTTPError（路由不存在、方法不允许等）对应的业务错误码
var echoStatusCodes = map[int]xerrors.ErrorCode{
	http.StatusBadRequest:       xerrors.CodeInvalidParams,
	http.StatusUnauthorized:     xerrors.CodeAuthenticationFailed,
	http.StatusForbidden:        xerrors.CodePermissionDenied,
	http.StatusNotFound:         xerrors.CodeResourceNotFound,
	http.StatusMethodNotAllowed: xerrors.CodeResourceNotFound,
	http.StatusConflict:         xerrors.CodeResourceLocked,
}

// ErrorMiddleware handler 返回的错误统一写成响应体
func ErrorMiddleware(respWriter response.Writer, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			ctx := c.Request().Context()

			var appErr *xerrors.AppError
			var echoErr *echo.HTTPError
			switch {
			case errors.As(err, &appErr):
			case errors.As(err, &echoErr):
				appErr = convertEchoError(echoErr)
			default:
				logger.ErrorContext(ctx, "未处理的错误", log.String("error_type", fmt.Sprintf("%T", err)), log.Any("error", err))
				appErr = xerrors.NewWithError(xerrors.CodeInternalError, "系统内部错误", err).WithOperation("middleware.error")
			}
			return respWriter.WriteError(ctx, c.Response().Writer, appErr)
		}
	}
}

func convertEchoError(echoErr *echo.HTTPError) *xerrors.AppError {
	code, ok := echoStatusCodes[echoErr.Code]
	if !ok {
		return xerrors.FromCode(xerrors.CodeInternalError).
			WithMetadata("echo_status", echoErr.Code).
			WithMetadata("echo_message", fmt.Sprint(echoErr.Message))
	}
	return xerrors.FromCode(code).WithMetadata("echo_message", fmt.Sprint(echoErr.Message))
}

// RecoveryMiddleware panic 转为 500 响应，连接不中断
func RecoveryMiddleware(respWriter response.Writer, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				ctx := c.Request().Context()
				logger.ErrorContext(ctx, "应用程序 panic",
					log.Any("panic_value", r),
					log.String("path", c.Request().URL.Path),
					log.String("stack", string(debug.Stack())),
				)
				appErr := xerrors.FromCode(xerrors.CodeInternalError).
					WithOperation("middleware.recovery").
					WithMetadata("panic_value", fmt.Sprint(r))
				err = respWriter.WriteError(ctx, c.Response().Writer, appErr)
			}()
			return next(c)
		}
	}
}
