package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nesivarusta/nvu_api/dto"
	"github.com/nesivarusta/nvu_api/services/clientinfo"
	"github.com/nesivarusta/nvu_api/services/limiter"
	"github.com/stretchr/testify/mock"
)

type mockCommentService struct {
	mock.Mock
}

func (m *mockCommentService) SubmitComment(ctx context.Context, req dto.SubmitCommentRequest, md clientinfo.Metadata) (*dto.SubmitCommentResponse, error) {
	args := m.Called(ctx, req, md)
	resp, _ := args.Get(0).(*dto.SubmitCommentResponse)
	return resp, args.Error(1)
}

func (m *mockCommentService) ListApprovedComments(ctx context.Context, resourceID, page, limit int) (*dto.CommentListResponse, error) {
	args := m.Called(ctx, resourceID, page, limit)
	resp, _ := args.Get(0).(*dto.CommentListResponse)
	return resp, args.Error(1)
}

func (m *mockCommentService) ReactToComment(ctx context.Context, id string, req dto.ReactionRequest, identifier string) (*dto.ReactionResponse, error) {
	args := m.Called(ctx, id, req, identifier)
	resp, _ := args.Get(0).(*dto.ReactionResponse)
	return resp, args.Error(1)
}

func (m *mockCommentService) ListCommentsForReview(ctx context.Context, status string, page, limit int) (*dto.AdminCommentListResponse, error) {
	args := m.Called(ctx, status, page, limit)
	resp, _ := args.Get(0).(*dto.AdminCommentListResponse)
	return resp, args.Error(1)
}

func (m *mockCommentService) ModerateComment(ctx context.Context, id string, req dto.ModerateCommentRequest, adminID string) (*dto.AdminCommentResponse, error) {
	args := m.Called(ctx, id, req, adminID)
	resp, _ := args.Get(0).(*dto.AdminCommentResponse)
	return resp, args.Error(1)
}

func (m *mockCommentService) GetModerationStats(ctx context.Context) (*dto.ModerationStatsResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*dto.ModerationStatsResponse)
	return resp, args.Error(1)
}

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Login(ctx context.Context, req dto.AdminLoginRequest, clientIP, userAgent string) (*dto.AdminLoginResponse, error) {
	args := m.Called(ctx, req, clientIP, userAgent)
	resp, _ := args.Get(0).(*dto.AdminLoginResponse)
	return resp, args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockAuthService) SessionCookie(token string, expiresAt time.Time) *fiber.Cookie {
	return &fiber.Cookie{Name: "admin_session", Value: token, Expires: expiresAt, HTTPOnly: true}
}

func (m *mockAuthService) ClearSessionCookie() *fiber.Cookie {
	return &fiber.Cookie{Name: "admin_session", Value: "", Expires: time.Unix(0, 0), HTTPOnly: true}
}

type mockRateLimitService struct {
	mock.Mock
}

func (m *mockRateLimitService) Policies() []limiter.Policy {
	return m.Called().Get(0).([]limiter.Policy)
}

func (m *mockRateLimitService) StoreName() string {
	return m.Called().String(0)
}

func (m *mockRateLimitService) Reset(ctx context.Context, identifier, actionClass string) error {
	return m.Called(ctx, identifier, actionClass).Error(0)
}
