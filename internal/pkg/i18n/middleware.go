package i18n

import (
	"github.com/labstack/echo/v4"
)

// Middleware 将协商出的语言写入请求 context
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(WithLanguage(req.Context(), FromRequest(req))))
			return next(c)
		}
	}
}
