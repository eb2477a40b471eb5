package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loveos/couple-api/internal/api/metrics"
	"github.com/loveos/couple-api/internal/core/domain"
	"github.com/loveos/couple-api/internal/core/ports"
)

type AuthHandler struct {
	authService    ports.AuthService
	partnerService ports.PartnerService
}

func NewAuthHandler(authService ports.AuthService, partnerService ports.PartnerService) *AuthHandler {
	return &AuthHandler{authService: authService, partnerService: partnerService}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:          req.Username,
		Password:          req.Password,
		Role:              req.Role,
		DisplayName:       req.DisplayName,
		AnniversaryDate:   req.AnniversaryDate,
		RelationshipStart: req.RelationshipStart,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		ExpiresAt:   res.ExpiresAt,
		User:        res.User,
	})
}

// Me returns the account bound to the bearer token.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	token, _ := c.Get("token").(string)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Logout revokes the bearer token.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), session); err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.Inc()

	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// LinkPartner links the caller and the named user as a couple.
//
// @Summary      Link partner
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      linkPartnerRequest  true  "Partner username"
// @Success      200   {object}  linkPartnerResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/auth/link-partner [post]
func (h *AuthHandler) LinkPartner(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req linkPartnerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	partner, err := h.partnerService.LinkPartner(c.Request().Context(), session, req.PartnerUsername)
	metrics.PartnerLinkOpsTotal.WithLabelValues("link", metrics.ErrorLabel(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, linkPartnerResponse{
		Message: "Partner linked successfully",
		Partner: &domain.PartnerInfo{
			ID:          partner.ID,
			Username:    partner.Username,
			DisplayName: partner.DisplayName,
			Role:        partner.Role,
		},
	})
}

// UnlinkPartner dissolves the caller's partner link.
//
// @Summary      Unlink partner
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /api/auth/unlink-partner [post]
func (h *AuthHandler) UnlinkPartner(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	err = h.partnerService.UnlinkPartner(c.Request().Context(), session)
	metrics.PartnerLinkOpsTotal.WithLabelValues("unlink", metrics.ErrorLabel(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Partner unlinked"})
}
