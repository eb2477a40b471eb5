package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loveos/couple-api/internal/core/domain"
)

// RBAC admits sessions whose role is one of allowedRoles. It must run after
// Auth, which places the session in the context.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, ok := c.Get("session").(domain.Session)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			if !allowed[session.Role] {
				return echo.NewHTTPError(http.StatusForbidden, "role "+session.Role+" may not access this resource")
			}
			return next(c)
		}
	}
}
