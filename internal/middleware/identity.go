package middleware

// identity.go holds the context helpers shared by the gates and handlers.
// The Authenticated gate stores the resolved account under accountKey; every
// later step reads it back through CurrentAccount instead of re-decoding the
// token.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/account-service/internal/model"
)

const accountKey = "account"

// CurrentAccount returns the account resolved for this request.  ok is
// false on routes that are not behind Authenticated.
func CurrentAccount(c echo.Context) (model.Account, bool) {
	a, ok := c.Get(accountKey).(model.Account)
	return a, ok
}

// SetCurrentAccount stores a on the request context.
func SetCurrentAccount(c echo.Context, a model.Account) {
	c.Set(accountKey, a)
}
