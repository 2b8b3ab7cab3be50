package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nesivarusta/nvu_api/dto"
	"github.com/nesivarusta/nvu_api/services/clientinfo"
	"github.com/nesivarusta/nvu_api/services/limiter"
)

type CommentServiceInterface interface {
	SubmitComment(ctx context.Context, req dto.SubmitCommentRequest, md clientinfo.Metadata) (*dto.SubmitCommentResponse, error)
	ListApprovedComments(ctx context.Context, resourceID, page, limit int) (*dto.CommentListResponse, error)
	ReactToComment(ctx context.Context, id string, req dto.ReactionRequest, identifier string) (*dto.ReactionResponse, error)
	ListCommentsForReview(ctx context.Context, status string, page, limit int) (*dto.AdminCommentListResponse, error)
	ModerateComment(ctx context.Context, id string, req dto.ModerateCommentRequest, adminID string) (*dto.AdminCommentResponse, error)
	GetModerationStats(ctx context.Context) (*dto.ModerationStatsResponse, error)
}

type AuthServiceInterface interface {
	Login(ctx context.Context, req dto.AdminLoginRequest, clientIP, userAgent string) (*dto.AdminLoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
	SessionCookie(token string, expiresAt time.Time) *fiber.Cookie
	ClearSessionCookie() *fiber.Cookie
}

type RateLimitServiceInterface interface {
	Policies() []limiter.Policy
	StoreName() string
	Reset(ctx context.Context, identifier, actionClass string) error
}
