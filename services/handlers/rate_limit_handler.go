package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/nesivarusta/nvu_api/dto"
	"github.com/nesivarusta/nvu_api/shared"
)

type RateLimitHandler struct {
	rateLimitSvc RateLimitServiceInterface
}

func NewRateLimitHandler(rateLimitSvc RateLimitServiceInterface) *RateLimitHandler {
	return &RateLimitHandler{
		rateLimitSvc: rateLimitSvc,
	}
}

// @Summary Rate limit policies (Admin)
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.RateLimitStatsResponse}
// @Router /api/v1/admin/rate-limits [get]
func (h *RateLimitHandler) GetRateLimitStats(c *fiber.Ctx) error {
	policies := h.rateLimitSvc.Policies()

	resp := dto.RateLimitStatsResponse{
		Store:    h.rateLimitSvc.StoreName(),
		Policies: make([]dto.RateLimitPolicyResponse, 0, len(policies)),
	}
	for _, p := range policies {
		resp.Policies = append(resp.Policies, dto.RateLimitPolicyResponse{
			ActionClass:   p.ActionClass,
			MaxRequests:   p.MaxRequests,
			WindowSeconds: int64(p.Window.Seconds()),
			Description:   p.Description,
		})
	}

	return shared.ResponseJSON(c, http.StatusOK, "Rate limit statistics", resp)
}

// @Summary Reset a rate limit window (Admin)
// @Description Clears the recorded attempts of one identifier, e.g. ip:203.0.113.7
// @Tags admin
// @Produce json
// @Security Bearer
// @Param actionClass path string true "Action class"
// @Param identifier path string true "Identifier"
// @Success 200 {object} shared.Response
// @Router /api/v1/admin/rate-limits/{actionClass}/{identifier} [delete]
func (h *RateLimitHandler) RemoveRateLimit(c *fiber.Ctx) error {
	actionClass := c.Params("actionClass")
	identifier := c.Params("identifier")

	if identifier == "" || actionClass == "" {
		return shared.ResponseJSON(c, http.StatusBadRequest, "Missing identifier or action class", nil)
	}

	if err := h.rateLimitSvc.Reset(c.UserContext(), identifier, actionClass); err != nil {
		return shared.NewInternalError(err, "Failed to remove rate limit")
	}

	message := fmt.Sprintf("Rate limit removed for %s/%s", actionClass, identifier)
	return shared.ResponseJSON(c, http.StatusOK, message, nil)
}
