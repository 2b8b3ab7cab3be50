package services

import (
	stdContext "context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nesivarusta/nvu_api/dto"
	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/clientinfo"
	"github.com/nesivarusta/nvu_api/services/limiter"
	"github.com/nesivarusta/nvu_api/services/moderation"
	"github.com/nesivarusta/nvu_api/services/repositories"
	"github.com/nesivarusta/nvu_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestCommentError_Mapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &moderation.ValidationFailure{Errors: []dto.ValidationError{{Field: "content", Message: "content is required"}}}, http.StatusBadRequest, "Validation failed"},
		{"rate limited", &moderation.RateLimitedError{ActionClass: shared.ActionComment, RetryAfter: 1500 * time.Millisecond}, http.StatusTooManyRequests, shared.MsgTooManySubmissions},
		{"duplicate", fmt.Errorf("store: %w", moderation.ErrDuplicateSubmission), http.StatusForbidden, shared.MsgAlreadyCommented},
		{"not found", moderation.ErrNotFound, http.StatusNotFound, "Comment not found"},
		{"already moderated", moderation.ErrAlreadyModerated, http.StatusConflict, "Comment has already been moderated"},
		{"invalid action", moderation.ErrInvalidAction, http.StatusBadRequest, "Action must be one of: approve reject"},
		{"internal", errors.New("connection reset by peer"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			appErr, ok := shared.GetAppError(commentError(tc.err))
			require.True(t, ok)
			assert.Equal(t, tc.status, appErr.StatusCode)
			assert.Equal(t, tc.message, appErr.Message)
			assert.NotContains(t, appErr.Message, "connection reset")
		})
	}

	appErr, _ := shared.GetAppError(commentError(&moderation.RateLimitedError{ActionClass: shared.ActionComment, RetryAfter: 1500 * time.Millisecond}))
	assert.Equal(t, map[string]interface{}{"retry_after": 2}, appErr.Data)
}

func newTestCommentService(t *testing.T) *CommentService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Comment{}, &model.User{}, &model.AdminSession{}))

	rateLimit := &RateLimitService{limiter: limiter.New(limiter.NewMemoryStore(), nil), storeName: "memory"}
	require.NoError(t, rateLimit.initDefaultConfigs())

	svc := &CommentService{}
	svc.pipeline = moderation.NewPipeline(moderation.Deps{
		Store:    repositories.NewCommentRepository(db),
		Users:    newTestUserService(newMemUserStore()),
		Limiter:  rateLimit,
		Recorder: newTestMonitoring(),
	}, moderation.Options{})
	return svc
}

func TestCommentService_SubmitModerateAndList(t *testing.T) {
	svc := newTestCommentService(t)
	ctx := stdContext.Background()
	md := clientinfo.Metadata{IP: "198.51.100.7", UserAgent: "ua", Browser: "Firefox"}

	submitted, err := svc.SubmitComment(ctx, dto.SubmitCommentRequest{
		ResourceID: 42,
		AuthorName: "Ayse",
		Content:    "This diagnosis page helped me a lot",
		DeviceID:   "device-1",
	}, md)
	require.NoError(t, err)
	assert.Equal(t, string(model.CommentPending), submitted.Status)
	assert.Equal(t, shared.MsgCommentReceived, submitted.Message)

	_, err = svc.SubmitComment(ctx, dto.SubmitCommentRequest{
		ResourceID: 42,
		AuthorName: "Ayse",
		Content:    "Posting the same thing again",
		DeviceID:   "device-1",
	}, md)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, appErr.StatusCode)

	public, err := svc.ListApprovedComments(ctx, 42, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, public.Comments)
	assert.Equal(t, 1, public.Page)

	review, err := svc.ListCommentsForReview(ctx, "", 1, 20)
	require.NoError(t, err)
	require.Len(t, review.Comments, 1)
	assert.Equal(t, "198.51.100.7", review.Comments[0].IPAddress)

	moderated, err := svc.ModerateComment(ctx, submitted.ID, dto.ModerateCommentRequest{Action: "approve"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, string(model.CommentApproved), moderated.Status)
	assert.True(t, moderated.IsVisible)

	_, err = svc.ModerateComment(ctx, submitted.ID, dto.ModerateCommentRequest{Action: "reject"}, "admin")
	appErr, ok = shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)

	public, err = svc.ListApprovedComments(ctx, 42, 1, 20)
	require.NoError(t, err)
	require.Len(t, public.Comments, 1)
	assert.Equal(t, int64(1), public.Total)

	reaction, err := svc.ReactToComment(ctx, submitted.ID, dto.ReactionRequest{Type: "like"}, "ip:198.51.100.9")
	require.NoError(t, err)
	assert.Equal(t, 1, reaction.LikesCount)

	stats, err := svc.GetModerationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Approved)
	assert.Equal(t, int64(0), stats.Pending)
}

func TestCommentService_SubmitValidation(t *testing.T) {
	svc := newTestCommentService(t)

	_, err := svc.SubmitComment(stdContext.Background(), dto.SubmitCommentRequest{
		ResourceID: 0,
		AuthorName: "",
		Content:    "hi",
	}, clientinfo.Metadata{IP: "198.51.100.8"})

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	errs, ok := appErr.Data.([]dto.ValidationError)
	require.True(t, ok)
	assert.NotEmpty(t, errs)
}

func TestCommentService_ModerateUnknown(t *testing.T) {
	svc := newTestCommentService(t)

	_, err := svc.ModerateComment(stdContext.Background(), "missing", dto.ModerateCommentRequest{Action: "approve"}, "admin")
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
}
