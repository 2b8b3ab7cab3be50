package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/nesivarusta/nvu_api/dto"
	"github.com/nesivarusta/nvu_api/services/clientinfo"
	"github.com/nesivarusta/nvu_api/shared"
)

type CommentHandler struct {
	commentSvc CommentServiceInterface
	parser     *clientinfo.Parser
}

func NewCommentHandler(commentSvc CommentServiceInterface) *CommentHandler {
	return &CommentHandler{
		commentSvc: commentSvc,
		parser:     clientinfo.NewParser(),
	}
}

// @Summary Submit a comment
// @Description Submit a public comment on a diagnosis page. Comments are held for review before they are shown.
// @Tags comments
// @Accept json
// @Produce json
// @Param X-Device-ID header string false "Client device id"
// @Param request body dto.SubmitCommentRequest true "Comment"
// @Success 201 {object} shared.Response{data=dto.SubmitCommentResponse}
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 403 {object} shared.Response
// @Failure 429 {object} shared.Response
// @Router /api/v1/comments [post]
func (h *CommentHandler) SubmitComment(c *fiber.Ctx) error {
	var req dto.SubmitCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ResponseJSON(c, http.StatusBadRequest, "Invalid request body", nil)
	}
	if req.DeviceID == "" {
		req.DeviceID = c.Get(shared.DeviceIDHeader)
	}

	resp, err := h.commentSvc.SubmitComment(c.UserContext(), req, h.parser.FromRequest(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, resp.Message, resp)
}

// @Summary List comments
// @Description Approved comments of a diagnosis page, newest first
// @Tags comments
// @Produce json
// @Param resource_id query int true "Resource id"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} shared.Response{data=dto.CommentListResponse}
// @Failure 400 {object} dto.ValidationErrorResponse
// @Router /api/v1/comments [get]
func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	resourceID := c.QueryInt("resource_id")
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	resp, err := h.commentSvc.ListApprovedComments(c.UserContext(), resourceID, page, limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Comments retrieved successfully", resp)
}

// @Summary React to a comment
// @Description Like or dislike an approved comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Param request body dto.ReactionRequest true "Reaction"
// @Success 200 {object} shared.Response{data=dto.ReactionResponse}
// @Failure 404 {object} shared.Response
// @Failure 429 {object} shared.Response
// @Router /api/v1/comments/{id}/reactions [post]
func (h *CommentHandler) ReactToComment(c *fiber.Ctx) error {
	var req dto.ReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ResponseJSON(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.commentSvc.ReactToComment(c.UserContext(), c.Params("id"), req, reactionIdentifier(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Reaction recorded", resp)
}

// reactionIdentifier keys the reaction window by device id when one is sent.
func reactionIdentifier(c *fiber.Ctx) string {
	if deviceID := c.Get(shared.DeviceIDHeader); deviceID != "" {
		return "device:" + deviceID
	}
	return "ip:" + clientinfo.ClientIP(c)
}
