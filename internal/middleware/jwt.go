package middleware // middleware contains the authorization gates and request plumbing

import (
	"context"  // context is passed to the resolver
	"errors"   // errors classifies resolver failures
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for parsing the Authorization header

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers
	"go.uber.org/zap"             // zap records why a token was rejected

	"github.com/iliyamo/account-service/internal/model"
	"github.com/iliyamo/account-service/internal/service"
	"github.com/iliyamo/account-service/internal/utils"
)

// Resolver turns a bearer token into an account.
type Resolver interface {
	Resolve(ctx context.Context, token string) (model.Account, error)
}

// Authenticated returns an Echo middleware that requires a bearer token
// resolving to an existing account.  Every rejection answers 401 with the
// same body and a WWW-Authenticate challenge; the specific reason is only
// logged.  A store failure while resolving is a 500, not a 401.
func Authenticated(r Resolver, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				logger.Info("request rejected", zap.String("reason", "missing bearer token"), zap.String("path", c.Path()))
				return notAuthenticated(c)
			}

			a, err := r.Resolve(c.Request().Context(), raw)
			if err != nil {
				if reason, known := rejectReason(err); known {
					logger.Info("request rejected", zap.String("reason", reason), zap.String("path", c.Path()))
					return notAuthenticated(c)
				}
				logger.Error("resolve bearer token", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Internal server error"})
			}

			SetCurrentAccount(c, a)
			return next(c)
		}
	}
}

// bearerToken extracts the credentials of a "Bearer <token>" header.  The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func rejectReason(err error) (string, bool) {
	switch {
	case errors.Is(err, utils.ErrTokenExpired):
		return "token expired", true
	case errors.Is(err, utils.ErrTokenInvalid):
		return "token invalid", true
	case errors.Is(err, service.ErrInvalidIdentifier):
		return "malformed subject", true
	case errors.Is(err, service.ErrNotFound):
		return "unknown subject", true
	}
	return "", false
}

func notAuthenticated(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Could not validate credentials"})
}
