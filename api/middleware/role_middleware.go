package middleware

import (
	"shulehub/internal/entity"

	"github.com/labstack/echo/v4"
)

// RequireRole rejects callers whose role is not in the allow list.
// Composable with RequireSameSchool on the same route.
func RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := PrincipalFromContext(c)
			if !ok {
				return unauthorized(c)
			}
			for _, role := range roles {
				if principal.Role == role {
					return next(c)
				}
			}
			return forbidden(c, "Insufficient permissions")
		}
	}
}

// RequireSameSchool enforces tenant scope: super_admin bypasses, every
// other role must carry a school id, which handlers then trust as the
// tenant boundary.
func RequireSameSchool(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return unauthorized(c)
		}
		if principal.Role == entity.RoleSuperAdmin {
			return next(c)
		}
		if principal.SchoolID == nil {
			return forbidden(c, "No school context")
		}
		return next(c)
	}
}
