package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/loveos/couple-api/internal/core/domain"
)

// loginFailedMessage is the client-facing text for every credential failure.
const loginFailedMessage = "Invalid username or password"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	if errors.Is(err, domain.ErrInvalidCredentials) {
		return http.StatusUnauthorized, loginFailedMessage
	}

	var de *domain.Error
	if errors.As(err, &de) {
		switch {
		case errors.Is(err, domain.ErrAuth):
			return http.StatusUnauthorized, de.Error()
		case errors.Is(err, domain.ErrNotFound):
			return http.StatusNotFound, de.Error()
		case errors.Is(err, domain.ErrValidation):
			return http.StatusBadRequest, de.Error()
		case errors.Is(err, domain.ErrConflict):
			return http.StatusConflict, de.Error()
		case errors.Is(err, domain.ErrConsistency):
			log.Warn().Err(err).Str("path", c.Path()).Msg("consistency error")
			return http.StatusConflict, de.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
