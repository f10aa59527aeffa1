package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin must run after Authenticated.  It lets the request through
// only when the resolved account has the admin flag; otherwise it answers
// 403, which tells a valid but unprivileged caller apart from an
// unauthenticated one.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, ok := CurrentAccount(c)
			if !ok {
				return notAuthenticated(c)
			}
			if !a.IsAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"detail": "The user doesn't have enough privileges"})
			}
			return next(c)
		}
	}
}
