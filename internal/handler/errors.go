package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modacart/auth-service/internal/service"
)

// writeServiceError maps each service-level failure onto its stable HTTP
// status and a human-readable message. Anything outside the taxonomy is an
// unexpected storage or transport failure and surfaces as a generic 500;
// internal detail never reaches the response body.
func writeServiceError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, service.ErrDuplicateIdentity):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidExternalToken),
		errors.Is(err, service.ErrInvalidOrExpiredCode),
		errors.Is(err, service.ErrPhoneMismatch),
		errors.Is(err, service.ErrTokenNotFound),
		errors.Is(err, service.ErrTokenReused),
		errors.Is(err, service.ErrTokenExpired):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrInvalidPermission),
		errors.Is(err, service.ErrInvalidAdminLevel):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrAdminNotFound),
		errors.Is(err, service.ErrTargetNotAdmin):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrSelfModification),
		errors.Is(err, service.ErrLastSuperAdminDemotion),
		errors.Is(err, service.ErrSuperAdminRestriction),
		errors.Is(err, service.ErrAlreadyMaximal):
		status, msg = http.StatusForbidden, err.Error()
	default:
		c.Logger().Errorf("internal error: %v", err)
	}
	return c.JSON(status, echo.Map{"error": msg})
}
