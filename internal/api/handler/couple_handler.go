package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loveos/couple-api/internal/core/ports"
)

type CoupleHandler struct {
	coupleService ports.CoupleService
}

func NewCoupleHandler(coupleService ports.CoupleService) *CoupleHandler {
	return &CoupleHandler{coupleService: coupleService}
}

// Summary returns the couple dashboard header.
//
// @Summary      Couple summary
// @Description  Partner names in display order, relationship dates and countdowns.
// @Tags         couple
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.CoupleSummary
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  errorResponse  "partner link is not mutual"
// @Router       /api/couple [get]
func (h *CoupleHandler) Summary(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	summary, err := h.coupleService.Summary(c.Request().Context(), session)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}
