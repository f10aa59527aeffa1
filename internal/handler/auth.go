package handler

import (
	"context"  // context bounds the store calls made by a request
	"net/http" // HTTP status codes and primitives
	"time"     // timeouts for store calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"             // structured logging

	"github.com/iliyamo/account-service/internal/middleware"
	"github.com/iliyamo/account-service/internal/model"
	"github.com/iliyamo/account-service/internal/utils"
)

// Authenticator runs the login precondition chain.
type Authenticator interface {
	Authenticate(ctx context.Context, userName, password string) (model.Account, error)
}

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (utils.AccessToken, error)
}

// LoginRecorder stamps the last successful login.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, id string)
}

// AuthHandler bundles dependencies for the login endpoints.
type AuthHandler struct {
	Auth    Authenticator
	Tokens  TokenIssuer
	Logins  LoginRecorder
	Logger  *zap.Logger
	Timeout time.Duration
}

func NewAuthHandler(auth Authenticator, tokens TokenIssuer, logins LoginRecorder, logger *zap.Logger, timeout time.Duration) *AuthHandler {
	return &AuthHandler{Auth: auth, Tokens: tokens, Logins: logins, Logger: logger, Timeout: timeout}
}

// Login exchanges a username and password for a bearer token.  Unknown
// usernames and wrong passwords get the same answer.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.Logger, errBadBody)
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		return respondError(c, h.Logger, err)
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	a, err := h.Auth.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return respondError(c, h.Logger, err)
	}

	tok, err := h.Tokens.Issue(a.ID, 0)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	h.Logins.RecordLogin(ctx, a.ID)

	h.Logger.Info("user logged in", zap.String("account_id", a.ID))
	return c.JSON(http.StatusOK, model.Token{AccessToken: tok.Token, TokenType: "Bearer"})
}

// TestToken returns the account the presented token belongs to.
func (h *AuthHandler) TestToken(c echo.Context) error {
	a, _ := middleware.CurrentAccount(c)
	return c.JSON(http.StatusOK, a.View())
}

// withTimeout derives the store deadline for one request.
func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(c.Request().Context(), d)
}
