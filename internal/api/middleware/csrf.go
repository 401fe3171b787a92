package middleware

import (
	"net/http"

	"cms0/internal/session"
	"cms0/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	CSRFHeader    = "X-CSRF-Token"
	CSRFFormField = "csrf_token"
)

// CSRF rejects state-changing requests whose token does not belong to the
// caller's session. The rejection is a 403 flash, never a handler call.
func CSRF(sink *logger.Sink) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isStateChanging(c.Request().Method) {
				return next(c)
			}

			s, ok := session.From(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			token := c.Request().Header.Get(CSRFHeader)
			if token == "" {
				token = c.FormValue(CSRFFormField)
			}
			if !s.ValidCSRF(token) {
				sink.Warn("csrf token mismatch",
					zap.Uint64("user_id", s.UserID),
					zap.String("path", c.Request().URL.Path),
				)
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"success": false,
					"message": "Your session token is invalid. Reload the page and try again.",
				})
			}
			return next(c)
		}
	}
}
