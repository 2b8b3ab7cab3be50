package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/nesivarusta/nvu_api/dto"
	"github.com/nesivarusta/nvu_api/services/clientinfo"
	"github.com/nesivarusta/nvu_api/shared"
)

type AuthHandler struct {
	authSvc AuthServiceInterface
}

func NewAuthHandler(authSvc AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
	}
}

// @Summary Administrator login
// @Description Opens an administrator session. The token is returned and also set as an HttpOnly cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Credentials"
// @Success 200 {object} shared.Response{data=dto.AdminLoginResponse}
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 401 {object} shared.Response
// @Failure 429 {object} shared.Response
// @Router /api/v1/admin/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ResponseJSON(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.authSvc.Login(c.UserContext(), req, clientinfo.ClientIP(c), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return err
	}

	c.Cookie(h.authSvc.SessionCookie(resp.Token, resp.ExpiresAt))
	return shared.ResponseJSON(c, http.StatusOK, "Login successful", resp)
}

// @Summary Administrator logout
// @Description Revokes the current administrator session
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response
// @Failure 401 {object} shared.Response
// @Router /api/v1/admin/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sessionID, _ := c.Locals(shared.AdminSessionID).(string)
	if sessionID == "" {
		return shared.ResponseUnauthorized(c)
	}

	if err := h.authSvc.Logout(c.UserContext(), sessionID); err != nil {
		return err
	}

	c.Cookie(h.authSvc.ClearSessionCookie())
	return shared.ResponseJSON(c, http.StatusOK, "Logout successful", nil)
}
