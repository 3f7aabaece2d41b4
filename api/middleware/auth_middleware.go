package middleware

import (
	"errors"
	"net/http"
	"strings"

	"shulehub/internal/dto"
	"shulehub/internal/service"
	"shulehub/internal/utils"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware validates the bearer token and loads the principal.
// Missing/invalid tokens and deleted users answer 401; suspended and
// unapproved accounts answer 403.
type AuthMiddleware struct {
	JWT  *utils.JWTManager
	Auth *service.AuthService
}

func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.JWT == nil || m.Auth == nil {
			return unauthorized(c)
		}
		token := extractBearerToken(c.Request())
		if token == "" {
			return unauthorized(c)
		}
		claims, err := m.JWT.ParseAccessToken(token)
		if err != nil {
			return unauthorized(c)
		}
		principal, err := m.Auth.ResolvePrincipal(c.Request().Context(), claims)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAccountSuspended):
				return forbidden(c, "Account suspended")
			case errors.Is(err, service.ErrAccountPending):
				return forbidden(c, "Account pending approval")
			default:
				return unauthorized(c)
			}
		}
		SetPrincipal(c, principal)
		return next(c)
	}
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, dto.Envelope{
		Success: false,
		Message: "Authentication required",
	})
}

func forbidden(c echo.Context, message string) error {
	return c.JSON(http.StatusForbidden, dto.Envelope{
		Success: false,
		Message: message,
	})
}
