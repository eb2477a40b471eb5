package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/loveos/couple-api/internal/core/domain"
)

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	Authenticate(ctx context.Context, token string) (domain.Session, error)
}

// Auth validates the bearer token and injects the session into context.
// Resolver errors are passed through so the error handler can tell a bad
// token (401) from a revocation-store outage (500).
func Auth(resolver SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			token := strings.TrimSpace(parts[1])
			session, err := resolver.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set("token", token)
			c.Set("session", session)
			c.Set("user_id", session.UserID)
			c.Set("username", session.Username)
			c.Set("role", session.Role)

			return next(c)
		}
	}
}
