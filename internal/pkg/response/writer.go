package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/i18n"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/trace"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

// Writer 把处理结果写成统一响应体，handler 与中间件共用
type Writer interface {
	WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error
	WriteStatus(ctx context.Context, w http.ResponseWriter, status int, data any) error
	WriteError(ctx context.Context, w http.ResponseWriter, err error) error
}

type ResponseHandler struct {
	logger      log.Logger
	environment string
}

func NewResponseHandler(logger log.Logger, environment string) *ResponseHandler {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &ResponseHandler{logger: logger, environment: environment}
}

func (h *ResponseHandler) WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error {
	return h.WriteStatus(ctx, w, http.StatusOK, data)
}

// WriteStatus 成功响应，消息按请求语言输出
func (h *ResponseHandler) WriteStatus(ctx context.Context, w http.ResponseWriter, status int, data any) error {
	body := newEnvelope(xerrors.CodeSuccess.ToInt(), i18n.Message(ctx, xerrors.CodeSuccess), &data, trace.GetTraceID(ctx))
	return writeJSON(w, status, body)
}

// WriteError 非 AppError 一律按内部错误输出；Error 级别以上记日志
func (h *ResponseHandler) WriteError(ctx context.Context, w http.ResponseWriter, err error) error {
	var appErr *xerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = xerrors.NewWithError(xerrors.CodeInternalError, "系统内部错误", err)
	}

	if appErr.Level >= xerrors.LevelError {
		log.LogAppError(ctx, "request failed", appErr)
	} else {
		h.logger.DebugContext(ctx, "request rejected", log.Int("code", appErr.Code.ToInt()))
	}

	body := newEnvelope[Empty](appErr.Code.ToInt(), i18n.Message(ctx, appErr.Code), nil, trace.GetTraceID(ctx))
	body.Error = h.detail(appErr)
	return writeJSON(w, xerrors.GetHTTPStatus(appErr.Code), body)
}

// 生产环境不暴露底层错误
func (h *ResponseHandler) detail(appErr *xerrors.AppError) string {
	if h.environment == "production" || appErr.Err == nil {
		return appErr.Message
	}
	return appErr.Error()
}
