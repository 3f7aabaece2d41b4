package middleware

import (
	"shulehub/internal/service"

	"github.com/labstack/echo/v4"
)

const contextPrincipalKey = "auth_principal"

func SetPrincipal(c echo.Context, principal *service.Principal) {
	c.Set(contextPrincipalKey, principal)
}

func PrincipalFromContext(c echo.Context) (*service.Principal, bool) {
	value := c.Get(contextPrincipalKey)
	principal, ok := value.(*service.Principal)
	if !ok || principal == nil {
		return nil, false
	}
	return principal, true
}
