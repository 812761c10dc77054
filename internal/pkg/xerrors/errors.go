package xerrors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// ErrorLevel 错误级别，决定记录日志时使用的级别
type ErrorLevel int

const (
	LevelInfo ErrorLevel = iota
	LevelWarn
	LevelError
	LevelCritical
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// AppError 带错误码的应用错误，经由 response 包转换成统一响应
type AppError struct {
	Code      ErrorCode
	Message   string
	Err       error
	Level     ErrorLevel
	Category  string
	Retryable bool

	// Operation 出错的处理环节，例如 "middleware.auth"
	Operation string
	Metadata  map[string]any

	File string
	Line int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// LogValue 实现 slog.LogValuer
func (e *AppError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("code", int(e.Code)),
		slog.String("message", e.Message),
		slog.String("level", e.Level.String()),
		slog.String("category", e.Category),
	}
	if e.Operation != "" {
		attrs = append(attrs, slog.String("operation", e.Operation))
	}
	for k, v := range e.Metadata {
		attrs = append(attrs, slog.Any(k, v))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}
	if e.File != "" {
		attrs = append(attrs, slog.String("at", fmt.Sprintf("%s:%d", e.File, e.Line)))
	}
	return slog.GroupValue(attrs...)
}

// WithOperation 标记出错环节
func (e *AppError) WithOperation(op string) *AppError {
	e.Operation = op
	return e
}

// WithMetadata 附加排查用字段
func (e *AppError) WithMetadata(key string, value any) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// New 使用自定义消息创建错误，级别等属性取自错误码
func New(code ErrorCode, message string) *AppError {
	info := lookup(code)
	return &AppError{
		Code:      code,
		Message:   message,
		Level:     info.level,
		Category:  categoryOf(code),
		Retryable: info.retryable,
	}
}

// FromCode 使用错误码的默认消息创建错误
func FromCode(code ErrorCode) *AppError {
	return New(code, lookup(code).message)
}

// NewWithError 包装底层错误并记录调用位置
func NewWithError(code ErrorCode, message string, err error) *AppError {
	appErr := New(code, message)
	appErr.Err = err
	if _, file, line, ok := runtime.Caller(1); ok {
		appErr.File = file
		appErr.Line = line
	}
	return appErr
}

// Wrap 把普通错误包装为 AppError；错误链中已有 AppError 时原样返回
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	wrapped := New(code, message)
	wrapped.Err = err
	if _, file, line, ok := runtime.Caller(1); ok {
		wrapped.File = file
		wrapped.Line = line
	}
	return wrapped
}

// HasCode 错误链中的 AppError 是否为指定错误码
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func NewValidationError(field, message string) *AppError {
	return FromCode(CodeInvalidParams).
		WithMetadata("field", field).
		WithMetadata("validation_message", message)
}

func NewAuthError(message string) *AppError {
	return FromCode(CodeAuthenticationFailed).WithMetadata("reason", message)
}

func NewPermissionError(resource, action string) *AppError {
	return FromCode(CodePermissionDenied).
		WithMetadata("resource", resource).
		WithMetadata("action", action)
}

func NewTokenError(tokenType string) *AppError {
	return FromCode(CodeInvalidToken).WithMetadata("token_type", tokenType)
}

func NewTokenExpiredError(tokenType string) *AppError {
	return FromCode(CodeTokenExpired).WithMetadata("token_type", tokenType)
}

func NewDatabaseError(operation, table string, err error) *AppError {
	appErr := FromCode(CodeDatabaseError).
		WithMetadata("db_operation", operation).
		WithMetadata("table", table)
	appErr.Err = err
	return appErr
}

func NewCacheError(operation string, err error) *AppError {
	appErr := FromCode(CodeCacheError).WithMetadata("cache_operation", operation)
	appErr.Err = err
	return appErr
}

func NewCharacterNotFoundError(characterID string) *AppError {
	return FromCode(CodeCharacterNotFound).WithMetadata("character_id", characterID)
}

func NewStageNotFoundError(stageID string) *AppError {
	return FromCode(CodeStageNotFound).WithMetadata("stage_id", stageID)
}

func NewSpeciesNotFoundError(speciesID string) *AppError {
	return FromCode(CodeSpeciesNotFound).WithMetadata("species_id", speciesID)
}

// 战斗

func NewBattleNotFoundError(battleID string) *AppError {
	return FromCode(CodeBattleNotFound).WithMetadata("battle_id", battleID)
}

func NewNotParticipantError(battleID, controllerID string) *AppError {
	return FromCode(CodeBattleNotParticipant).
		WithMetadata("battle_id", battleID).
		WithMetadata("controller_id", controllerID)
}

func NewNotOwnerError(battleID, unitID string) *AppError {
	return FromCode(CodeBattleNotOwner).
		WithMetadata("battle_id", battleID).
		WithMetadata("unit_id", unitID)
}

func NewBattleEndedError(battleID, phase string) *AppError {
	return FromCode(CodeBattleAlreadyEnded).
		WithMetadata("battle_id", battleID).
		WithMetadata("phase", phase)
}

func NewInvalidActionError(unitID, reason string) *AppError {
	return FromCode(CodeBattleInvalidAction).
		WithMetadata("unit_id", unitID).
		WithMetadata("reason", reason)
}

func NewTurnResolvedError(battleID string, expected, current int) *AppError {
	return FromCode(CodeBattleTurnResolved).
		WithMetadata("battle_id", battleID).
		WithMetadata("expected_turn", expected).
		WithMetadata("current_turn", current)
}
