package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/loveos/couple-api/internal/core/domain"
)

func TestHTTPErrorHandler_MapsKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
		{"no session", domain.ErrNotAuthenticated, http.StatusUnauthorized, "not authenticated"},
		{"unknown partner", domain.ErrPartnerNotFound, http.StatusNotFound, "partner not found"},
		{"self link", domain.ErrSelfLink, http.StatusBadRequest, "cannot link to yourself"},
		{"taken", domain.ErrPartnerTaken, http.StatusConflict, "partner is already linked to someone else"},
		{"wrapped asymmetric", fmt.Errorf("partner x missing: %w", domain.ErrAsymmetricLink), http.StatusConflict, "partner link is not mutual"},
		{"echo error", echo.NewHTTPError(http.StatusUnprocessableEntity, "username is required"), http.StatusUnprocessableEntity, "username is required"},
		{"unexpected", fmt.Errorf("authenticate: %w", errors.New("redis: connection refused")), http.StatusInternalServerError, "internal server error"},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			h(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["error"] != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, body["error"])
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusOK, "done")

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrNotAuthenticated, c)

	if rec.Code != http.StatusOK || rec.Body.String() != "done" {
		t.Fatalf("committed response must not be overwritten: %d %q", rec.Code, rec.Body.String())
	}
}
