package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AkshadGawde/linktree-api/internal/core/ports"
)

// ReferralHandler serves the authenticated user's referral data.
type ReferralHandler struct {
	referrals ports.ReferralService
}

func NewReferralHandler(referrals ports.ReferralService) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

// List returns every referral made by the authenticated user.
//
// @Summary      List referrals
// @Tags         referrals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.ReferralDetail
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /referrals [get]
func (h *ReferralHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	items, err := h.referrals.GetReferrals(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Stats returns referral counts for the authenticated user.
//
// @Summary      Referral statistics
// @Tags         referrals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.ReferralStats
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /referrals/stats [get]
func (h *ReferralHandler) Stats(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	stats, err := h.referrals.GetReferralStats(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
