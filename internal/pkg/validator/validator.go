package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

// ActionTypes 客户端可提交的行动类型
var ActionTypes = map[string]struct{}{
	"attack":  {},
	"defend":  {},
	"capture": {},
	"flee":    {},
	"wait":    {},
	"skill":   {},
}

// CustomValidator wraps go-playground validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface
// 校验失败时返回 AppError，由错误中间件统一输出
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return xerrors.NewValidationError(first.Field(), describe(first)).
			WithMetadata("errors", TranslateValidationErrors(err))
	}
	return xerrors.NewValidationError("request", err.Error())
}

// New creates a new custom validator instance
func New() echo.Validator {
	return &CustomValidator{validator: NewValidate()}
}

// NewValidate 返回注册了战斗规则的底层校验器
func NewValidate() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("battle_action", validateBattleAction)
	return v
}

// validateBattleAction 校验行动类型
func validateBattleAction(fl validator.FieldLevel) bool {
	_, ok := ActionTypes[fl.Field().String()]
	return ok
}
