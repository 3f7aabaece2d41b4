package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"shulehub/internal/dto"
	"shulehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, dto.Envelope{
		Success: status < 400,
		Message: message,
		Data:    data,
	})
}

func respondViolations(c echo.Context, message string, violations []string) error {
	return c.JSON(http.StatusBadRequest, dto.Envelope{
		Success: false,
		Message: message,
		Errors:  violations,
	})
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Unexpected errors become a generic 500; the underlying message is
// logged, and exposed in the body only outside production.
func writeServiceError(c echo.Context, logger *logrus.Logger, production bool, err error) error {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return respondViolations(c, "Validation failed", validationErr.Violations)
	}
	var conflictErr service.ConflictError
	if errors.As(err, &conflictErr) {
		return respond(c, http.StatusConflict, conflictErr.Error(), nil)
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return respond(c, http.StatusBadRequest, "Invalid request", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return respond(c, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrInvalidMFACode):
		return respond(c, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, service.ErrAccountLocked):
		return respond(c, http.StatusLocked, "Account temporarily locked due to repeated failed logins", nil)
	case errors.Is(err, service.ErrAccountSuspended),
		errors.Is(err, service.ErrAccountPending),
		errors.Is(err, service.ErrEmailNotVerified),
		errors.Is(err, service.ErrForbidden):
		return respond(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		return respond(c, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, service.ErrMFARequired):
		return respond(c, http.StatusPreconditionRequired, err.Error(), nil)
	case errors.Is(err, service.ErrMFANotConfigured):
		return respond(c, http.StatusFailedDependency, err.Error(), nil)
	}

	if logger != nil {
		logger.WithError(err).Error("unhandled service error")
	}
	envelope := dto.Envelope{Success: false, Message: "Internal server error"}
	if !production {
		envelope.Errors = []string{err.Error()}
	}
	return c.JSON(http.StatusInternalServerError, envelope)
}

// violationsFromValidator flattens validator.ValidationErrors into the
// human-readable list the envelope carries.
func violationsFromValidator(err error) []string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{err.Error()}
	}
	violations := make([]string, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		field := strings.ToLower(fieldErr.Field()[:1]) + fieldErr.Field()[1:]
		switch fieldErr.Tag() {
		case "required":
			violations = append(violations, fmt.Sprintf("%s is required", field))
		case "email":
			violations = append(violations, fmt.Sprintf("%s must be a valid email address", field))
		case "oneof":
			violations = append(violations, fmt.Sprintf("%s must be one of: %s", field, fieldErr.Param()))
		default:
			violations = append(violations, fmt.Sprintf("%s is invalid", field))
		}
	}
	return violations
}
