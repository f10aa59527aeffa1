package handler

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/service"
)

// respondError is the single place where domain errors become HTTP
// responses.  Expected client errors are logged at Info; anything
// unrecognised is logged in full at Error and answered with a generic 500.
func respondError(c echo.Context, logger *zap.Logger, err error) error {
	status, detail := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.JSON(status, echo.Map{"detail": "Internal server error"})
	}
	logger.Info("request rejected", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	return c.JSON(status, echo.Map{"detail": detail})
}

func classify(err error) (int, any) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, verrs
	case errors.Is(err, service.ErrIncorrectCredentials):
		return http.StatusBadRequest, "Incorrect user name or password"
	case errors.Is(err, service.ErrInactiveAccount):
		return http.StatusBadRequest, "Inactive user"
	case errors.Is(err, service.ErrDuplicateUsername):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrInvalidIdentifier):
		return http.StatusBadRequest, "Invalid ID format"
	case errors.Is(err, service.ErrSecurityAnswerMismatch):
		return http.StatusBadRequest, "The security question answer does not match"
	case errors.Is(err, service.ErrInvalidTargetAccount):
		return http.StatusBadRequest, "Invalid user ID"
	case errors.Is(err, service.ErrUpdateConflict):
		return http.StatusConflict, "The account changed while it was being updated"
	}
	return http.StatusInternalServerError, nil
}

// errBadBody is returned for bodies that cannot be decoded at all.
var errBadBody = validation.Errors{"body": errors.New("invalid request body")}
