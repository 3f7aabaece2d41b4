package handler

import (
	"net/http"
	"strings"

	"shulehub/api/middleware"
	"shulehub/internal/dto"
	"shulehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	Auth       *service.AuthService
	Validate   *validator.Validate
	Logger     *logrus.Logger
	Production bool
}

func NewAuthHandler(auth *service.AuthService, validate *validator.Validate, logger *logrus.Logger, production bool) *AuthHandler {
	return &AuthHandler{Auth: auth, Validate: validate, Logger: logger, Production: production}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}
	input := service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: stringPtr(c.RealIP()),
		UserAgent: stringPtr(c.Request().UserAgent()),
	}
	result, err := h.Auth.Login(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	if result.MFARequired {
		return respond(c, http.StatusOK, "Two-factor code required", mapLoginResponse(result))
	}
	return respond(c, http.StatusOK, "Login successful", mapLoginResponse(result))
}

func (h *AuthHandler) LoginWithMFA(c echo.Context) error {
	var req dto.LoginMFARequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}
	input := service.LoginMFAInput{
		MFAToken:  req.MFAToken,
		Code:      req.Code,
		IPAddress: stringPtr(c.RealIP()),
		UserAgent: stringPtr(c.Request().UserAgent()),
	}
	result, err := h.Auth.LoginWithMFA(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "Login successful", mapLoginResponse(result))
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req dto.RefreshRequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}
	result, err := h.Auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "Token refreshed", mapLoginResponse(result))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}
	if err := h.Auth.Logout(c.Request().Context(), principal, stringPtr(c.RealIP())); err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "Logged out", nil)
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.Param("token")
	if err := h.Auth.VerifyEmail(c.Request().Context(), token); err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "Email verified", nil)
}

// RequestPasswordReset answers 200 with the same message whether or not
// the email exists.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req dto.PasswordForgotRequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}
	if err := h.Auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "If the email is registered, a reset link has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req dto.PasswordResetRequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}
	if err := h.Auth.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "Password reset", nil)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}
	var req dto.ChangePasswordRequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}
	if err := h.Auth.ChangePassword(c.Request().Context(), principal.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "Password changed", nil)
}

func (h *AuthHandler) EnableMFA(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}
	otpAuthURL, err := h.Auth.EnableMFA(c.Request().Context(), principal.UserID)
	if err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "Scan the code with an authenticator app, then verify", dto.MFAEnableResponse{OTPAuthURL: otpAuthURL})
}

func (h *AuthHandler) VerifyMFA(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}
	var req dto.MFAVerifyRequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}
	if err := h.Auth.VerifyMFA(c.Request().Context(), principal.UserID, req.Code); err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "Two-factor authentication enabled", nil)
}

func (h *AuthHandler) DisableMFA(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}
	if err := h.Auth.DisableMFA(c.Request().Context(), principal.UserID); err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "Two-factor authentication disabled", nil)
}

func mapLoginResponse(result *service.LoginResult) dto.LoginResponse {
	if result == nil {
		return dto.LoginResponse{}
	}
	return dto.LoginResponse{
		AccessToken:       result.AccessToken,
		ExpiresIn:         result.ExpiresIn,
		RefreshToken:      result.RefreshToken,
		RefreshExpiresIn:  result.RefreshExpiresIn,
		MFARequired:       result.MFARequired,
		MFAToken:          result.MFAToken,
		MFATokenExpiresIn: result.MFATokenExpiresIn,
	}
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
