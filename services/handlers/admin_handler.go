package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/nesivarusta/nvu_api/dto"
	"github.com/nesivarusta/nvu_api/shared"
)

type AdminHandler struct {
	commentSvc CommentServiceInterface
}

func NewAdminHandler(commentSvc CommentServiceInterface) *AdminHandler {
	return &AdminHandler{
		commentSvc: commentSvc,
	}
}

// @Summary List comments for review (Admin)
// @Description Comments awaiting moderation. status may be pending (default), approved, rejected or all.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param status query string false "Status filter" default(pending)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} shared.Response{data=dto.AdminCommentListResponse}
// @Failure 401 {object} shared.Response
// @Router /api/v1/admin/comments [get]
func (h *AdminHandler) ListComments(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	resp, err := h.commentSvc.ListCommentsForReview(c.UserContext(), c.Query("status"), page, limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Comments retrieved successfully", resp)
}

// @Summary Moderate a comment (Admin)
// @Description Approve or reject a pending comment. Approved and rejected comments cannot be moderated again.
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Comment ID"
// @Param request body dto.ModerateCommentRequest true "Moderation action"
// @Success 200 {object} shared.Response{data=dto.AdminCommentResponse}
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 404 {object} shared.Response
// @Failure 409 {object} shared.Response
// @Router /api/v1/admin/comments/{id}/moderate [post]
func (h *AdminHandler) ModerateComment(c *fiber.Ctx) error {
	var req dto.ModerateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ResponseJSON(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	adminID, _ := c.Locals(shared.AdminID).(string)

	resp, err := h.commentSvc.ModerateComment(c.UserContext(), c.Params("id"), req, adminID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Comment "+req.Action+"d", resp)
}

// @Summary Moderation statistics (Admin)
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.ModerationStatsResponse}
// @Router /api/v1/admin/comments/stats [get]
func (h *AdminHandler) GetModerationStats(c *fiber.Ctx) error {
	resp, err := h.commentSvc.GetModerationStats(c.UserContext())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Statistics retrieved successfully", resp)
}
