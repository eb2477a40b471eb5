package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loveos/couple-api/internal/core/domain"
)

// ctxSession extracts the session injected by the Auth middleware. A missing
// session means the route was wired without the middleware.
func ctxSession(c echo.Context) (domain.Session, error) {
	session, ok := c.Get("session").(domain.Session)
	if !ok || session.UserID == "" {
		return domain.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return session, nil
}
