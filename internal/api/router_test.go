package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loveos/couple-api/internal/core/service"
	"github.com/loveos/couple-api/internal/infrastructure/db/memory"
)

func newTestRouter(t *testing.T, loginRate float64) *echo.Echo {
	t.Helper()
	repo := memory.NewUserRepository()
	partners := service.NewPartnerService(repo, zerolog.Nop())
	auth := service.NewAuthService(repo, service.NewPasswordAuthenticator(repo), memory.NewRevocationStore(), "test-secret", time.Hour, zerolog.Nop())

	return NewRouter(Deps{
		Auth:           auth,
		Partners:       partners,
		Couple:         service.NewCoupleService(repo, partners),
		LoginRateLimit: loginRate,
		Log:            zerolog.Nop(),
	})
}

func do(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func login(t *testing.T, e *echo.Echo, username, password string) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/auth/login", "", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decode(t, rec)["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRouter_CoupleFlow(t *testing.T) {
	e := newTestRouter(t, 0)

	rec := do(e, http.MethodPost, "/api/auth/register", "", `{"username":"Sam","password":"love123","role":"boyfriend","display_name":"Sam","relationship_start":"2020-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "sam", decode(t, rec)["username"])

	rec = do(e, http.MethodPost, "/api/auth/register", "", `{"username":"alex","password":"love123","role":"girlfriend"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/auth/register", "", `{"username":"SAM","password":"other1","role":"boyfriend"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	samToken := login(t, e, "sam", "love123")
	alexToken := login(t, e, "alex", "love123")

	rec = do(e, http.MethodGet, "/api/couple", samToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []any{"Partner 1", "Partner 2"}, decode(t, rec)["partner_names"])

	rec = do(e, http.MethodPost, "/api/auth/link-partner", alexToken, `{"partner_username":"Sam"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	partner, _ := decode(t, rec)["partner"].(map[string]any)
	assert.Equal(t, "sam", partner["username"])

	rec = do(e, http.MethodPost, "/api/auth/link-partner", samToken, `{"partner_username":"alex"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "linking an existing mutual pair is idempotent")

	rec = do(e, http.MethodGet, "/api/couple", alexToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode(t, rec)
	assert.Equal(t, []any{"Sam", "alex"}, summary["partner_names"])
	assert.Equal(t, "alex", summary["my_name"])
	assert.Equal(t, "Sam", summary["partner_name"])
	assert.NotNil(t, summary["days_together"])

	rec = do(e, http.MethodGet, "/api/auth/me", samToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.NotEmpty(t, me["partner_id"])
	assert.NotContains(t, me, "password_hash")

	rec = do(e, http.MethodPost, "/api/auth/unlink-partner", samToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(e, http.MethodGet, "/api/couple", alexToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Partner 1", "Partner 2"}, decode(t, rec)["partner_names"])
}

func TestRouter_LoginFailures(t *testing.T) {
	e := newTestRouter(t, 0)
	rec := do(e, http.MethodPost, "/api/auth/register", "", `{"username":"sam","password":"love123","role":"boyfriend"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, body := range []string{
		`{"username":"sam","password":"nope"}`,
		`{"username":"ghost","password":"love123"}`,
		`{"username":"","password":""}`,
	} {
		rec := do(e, http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
		assert.Equal(t, "Invalid username or password", decode(t, rec)["error"], body)
	}
}

func TestRouter_Logout(t *testing.T) {
	e := newTestRouter(t, 0)
	do(e, http.MethodPost, "/api/auth/register", "", `{"username":"sam","password":"love123","role":"boyfriend"}`)
	token := login(t, e, "sam", "love123")

	rec := do(e, http.MethodPost, "/api/auth/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Errors(t *testing.T) {
	e := newTestRouter(t, 0)
	do(e, http.MethodPost, "/api/auth/register", "", `{"username":"sam","password":"love123","role":"boyfriend"}`)
	token := login(t, e, "sam", "love123")

	cases := []struct {
		name, method, path, token, body string
		want                            int
	}{
		{"no token", http.MethodGet, "/api/couple", "", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/auth/me", "garbage", "", http.StatusUnauthorized},
		{"self link", http.MethodPost, "/api/auth/link-partner", token, `{"partner_username":"SAM"}`, http.StatusBadRequest},
		{"unknown partner", http.MethodPost, "/api/auth/link-partner", token, `{"partner_username":"ghost"}`, http.StatusNotFound},
		{"unlink when single", http.MethodPost, "/api/auth/unlink-partner", token, "", http.StatusConflict},
		{"bad role", http.MethodPost, "/api/auth/register", "", `{"username":"x","password":"secret1","role":"friend"}`, http.StatusUnprocessableEntity},
		{"malformed json", http.MethodPost, "/api/auth/register", "", `{`, http.StatusBadRequest},
		{"password over 72 bytes", http.MethodPost, "/api/auth/register", "", `{"username":"rene","password":"` + strings.Repeat("é", 40) + `","role":"boyfriend"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestRouter_LoginRateLimit(t *testing.T) {
	e := newTestRouter(t, 1)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(e, http.MethodPost, "/api/auth/login", "", `{"username":"x","password":"y"}`).Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestRouter_Probes(t *testing.T) {
	e := newTestRouter(t, 0)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health/ready", "", "").Code)

	do(e, http.MethodPost, "/api/auth/login", "", `{"username":"x","password":"y"}`)
	rec := do(e, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "loveos_login_attempts_total")
	assert.Contains(t, rec.Body.String(), "loveos_http_requests_total")
}
