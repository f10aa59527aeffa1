package middleware

import "github.com/labstack/echo/v4"

// NoStore marks responses as uncacheable.  Account views and tokens depend
// on the caller's identity and must reflect deletions immediately, so no
// shared or browser cache may keep them.
func NoStore() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderCacheControl, "no-store")
			h.Set("Pragma", "no-cache")
			return next(c)
		}
	}
}
