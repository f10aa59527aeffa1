package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/middleware"
	"github.com/iliyamo/account-service/internal/model"
	"github.com/iliyamo/account-service/internal/service"
)

// AccountHandler serves the /user routes.
type AccountHandler struct {
	Accounts *service.AccountService
	Logger   *zap.Logger
	Timeout  time.Duration
}

func NewAccountHandler(accounts *service.AccountService, logger *zap.Logger, timeout time.Duration) *AccountHandler {
	return &AccountHandler{Accounts: accounts, Logger: logger, Timeout: timeout}
}

// Create registers a new account.  No authentication is required.
func (h *AccountHandler) Create(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.Logger, errBadBody)
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		return respondError(c, h.Logger, err)
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	a, err := h.Accounts.Register(ctx, service.RegisterInput{
		UserName:       req.UserName,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Password:       req.Password,
		SecurityAnswer: req.SecurityAnswer,
	})
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	h.Logger.Info("account created", zap.String("account_id", a.ID))
	return c.JSON(http.StatusCreated, a.View())
}

// ForgotPassword resets a password after the security answer checks out.
func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.Logger, errBadBody)
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		return respondError(c, h.Logger, err)
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	a, err := h.Accounts.ForgotPassword(ctx, service.ForgotPasswordInput{
		UserName:       req.UserName,
		SecurityAnswer: req.SecurityAnswer,
		NewPassword:    req.NewPassword,
	})
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, a.View())
}

// List returns every account (admin only).
func (h *AccountHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	all, err := h.Accounts.List(ctx)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, model.Views(all))
}

// Me returns the caller's own account.
func (h *AccountHandler) Me(c echo.Context) error {
	a, _ := middleware.CurrentAccount(c)
	return c.JSON(http.StatusOK, a.View())
}

// UpdateMe applies a self-update.  The body must name the caller's own id.
func (h *AccountHandler) UpdateMe(c echo.Context) error {
	caller, _ := middleware.CurrentAccount(c)

	var req updateMeReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.Logger, errBadBody)
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		return respondError(c, h.Logger, err)
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	a, err := h.Accounts.UpdateSelf(ctx, caller, service.UpdateSelfInput{
		ID:             req.ID,
		UserName:       req.UserName,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Password:       req.Password,
		SecurityAnswer: req.SecurityAnswer,
	})
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, a.View())
}

// DeleteMe removes the caller's own account.
func (h *AccountHandler) DeleteMe(c echo.Context) error {
	caller, _ := middleware.CurrentAccount(c)

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	if err := h.Accounts.DeleteSelf(ctx, caller); err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetByUserName looks an account up by its exact username (admin only).
func (h *AccountHandler) GetByUserName(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	a, err := h.Accounts.GetByUserName(ctx, userNameParam(c))
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, a.View())
}

// DeleteByUserName removes an account by username (admin only).
func (h *AccountHandler) DeleteByUserName(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	if err := h.Accounts.DeleteByUserName(ctx, userNameParam(c)); err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetByID looks an account up by id (admin only).
func (h *AccountHandler) GetByID(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, a.View())
}

// UpdateByID is the administrator's full update, including the active and
// admin flags.
func (h *AccountHandler) UpdateByID(c echo.Context) error {
	var req adminUpdateReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.Logger, errBadBody)
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		return respondError(c, h.Logger, err)
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	a, err := h.Accounts.UpdateAccount(ctx, c.Param("id"), service.AdminUpdateInput{
		UserName:       req.UserName,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Password:       req.Password,
		SecurityAnswer: req.SecurityAnswer,
		IsActive:       req.IsActive,
		IsAdmin:        req.IsAdmin,
	})
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, a.View())
}

// DeleteByID removes an account by id (admin only).
func (h *AccountHandler) DeleteByID(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	if err := h.Accounts.DeleteByID(ctx, c.Param("id")); err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// userNameParam reads the :user_name path segment, trimmed the same way
// usernames are trimmed at registration.
func userNameParam(c echo.Context) string {
	return strings.TrimSpace(c.Param("user_name"))
}
