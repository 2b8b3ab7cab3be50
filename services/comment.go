package services

import (
	stdContext "context"
	"errors"

	"github.com/alphabatem/common/context"
	"github.com/nesivarusta/nvu_api/config"
	"github.com/nesivarusta/nvu_api/dto"
	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/clientinfo"
	"github.com/nesivarusta/nvu_api/services/moderation"
	"github.com/nesivarusta/nvu_api/shared"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// CommentService exposes the moderation pipeline to the HTTP layer and turns
// its errors into client-facing AppErrors.
type CommentService struct {
	context.DefaultService

	threshold float64
	pipeline  *moderation.Pipeline
}

const COMMENT_SVC = "comment_svc"

func (svc CommentService) Id() string {
	return COMMENT_SVC
}

func (svc *CommentService) Configure(ctx *context.Context) error {
	svc.threshold = viper.GetFloat64(config.ModerationCutoff)
	return svc.DefaultService.Configure(ctx)
}

func (svc *CommentService) Start() error {
	deps := moderation.Deps{
		Store:   svc.Service(POSTGRES_SVC).(*PostgresService).Comments(),
		Users:   svc.Service(USER_SVC).(*UserService),
		Limiter: svc.Service(RATE_LIMIT_SVC).(*RateLimitService),
	}
	if scorer := svc.Service(SCORER_SVC).(*ScorerService).Scorer(); scorer != nil {
		deps.Scorer = scorer
	}
	if monitoring, ok := svc.Service(MONITORING_SVC).(*MonitoringService); ok {
		deps.Recorder = monitoring
	}

	svc.pipeline = moderation.NewPipeline(deps, moderation.Options{Threshold: svc.threshold})
	return nil
}

func (svc *CommentService) SubmitComment(ctx stdContext.Context, req dto.SubmitCommentRequest, md clientinfo.Metadata) (*dto.SubmitCommentResponse, error) {
	res, err := svc.pipeline.Submit(ctx, moderation.Submission{
		ResourceID:  int(req.ResourceID),
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Content:     req.Content,
		UserID:      req.UserID,
		DeviceID:    req.DeviceID,
		Client:      md,
	})
	if err != nil {
		return nil, commentError(err)
	}

	message := shared.MsgCommentReceived
	if res.Status == model.CommentRejected {
		message = shared.MsgCommentRejected
	}
	return &dto.SubmitCommentResponse{
		ID:      res.ID,
		Status:  string(res.Status),
		Message: message,
	}, nil
}

func (svc *CommentService) ListApprovedComments(ctx stdContext.Context, resourceID, page, limit int) (*dto.CommentListResponse, error) {
	comments, total, err := svc.pipeline.ListApproved(ctx, resourceID, page, limit)
	if err != nil {
		return nil, commentError(err)
	}

	page, limit = moderation.Page(page, limit)
	resp := &dto.CommentListResponse{
		Comments: make([]dto.CommentResponse, 0, len(comments)),
		Total:    total,
		Page:     page,
		Limit:    limit,
	}
	for _, c := range comments {
		resp.Comments = append(resp.Comments, toCommentResponse(c))
	}
	return resp, nil
}

func (svc *CommentService) ReactToComment(ctx stdContext.Context, id string, req dto.ReactionRequest, identifier string) (*dto.ReactionResponse, error) {
	comment, err := svc.pipeline.React(ctx, id, moderation.Reaction(req.Type), identifier)
	if err != nil {
		return nil, commentError(err)
	}
	return &dto.ReactionResponse{
		ID:            comment.ID,
		LikesCount:    comment.LikesCount,
		DislikesCount: comment.DislikesCount,
	}, nil
}

func (svc *CommentService) ListCommentsForReview(ctx stdContext.Context, status string, page, limit int) (*dto.AdminCommentListResponse, error) {
	comments, total, err := svc.pipeline.ListForReview(ctx, status, page, limit)
	if err != nil {
		return nil, commentError(err)
	}

	page, limit = moderation.Page(page, limit)
	resp := &dto.AdminCommentListResponse{
		Comments: make([]dto.AdminCommentResponse, 0, len(comments)),
		Total:    total,
		Page:     page,
		Limit:    limit,
	}
	for _, c := range comments {
		resp.Comments = append(resp.Comments, toAdminCommentResponse(c))
	}
	return resp, nil
}

func (svc *CommentService) ModerateComment(ctx stdContext.Context, id string, req dto.ModerateCommentRequest, adminID string) (*dto.AdminCommentResponse, error) {
	comment, err := svc.pipeline.Moderate(ctx, id, moderation.Action(req.Action), adminID)
	if err != nil {
		return nil, commentError(err)
	}
	resp := toAdminCommentResponse(*comment)
	return &resp, nil
}

func (svc *CommentService) GetModerationStats(ctx stdContext.Context) (*dto.ModerationStatsResponse, error) {
	counts, err := svc.pipeline.Stats(ctx)
	if err != nil {
		return nil, commentError(err)
	}
	return &dto.ModerationStatsResponse{
		Pending:  counts[model.CommentPending],
		Approved: counts[model.CommentApproved],
		Rejected: counts[model.CommentRejected],
	}, nil
}

// commentError keeps internal error text away from the client.
func commentError(err error) error {
	var validation *moderation.ValidationFailure
	var limited *moderation.RateLimitedError

	switch {
	case errors.As(err, &validation):
		return shared.NewBadRequestError(err, "Validation failed").WithData(validation.Errors)
	case errors.As(err, &limited):
		return shared.NewTooManyRequestsError(err, getRateLimitMessage(limited.ActionClass), limited.RetryAfter)
	case errors.Is(err, moderation.ErrDuplicateSubmission):
		return shared.NewForbiddenError(err, shared.MsgAlreadyCommented)
	case errors.Is(err, moderation.ErrNotFound):
		return shared.NewNotFoundError(err, "Comment not found")
	case errors.Is(err, moderation.ErrAlreadyModerated):
		return shared.NewConflictError(err, "Comment has already been moderated")
	case errors.Is(err, moderation.ErrInvalidAction):
		return shared.NewBadRequestError(err, "Action must be one of: approve reject")
	case errors.Is(err, moderation.ErrValidation):
		return shared.NewBadRequestError(err, "Validation failed")
	}

	log.WithError(err).Error("Comment operation failed")
	return shared.NewInternalError(err, "")
}

func toCommentResponse(c model.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:            c.ID,
		ResourceID:    c.ResourceID,
		AuthorName:    c.AuthorName,
		Content:       c.Content,
		LikesCount:    c.LikesCount,
		DislikesCount: c.DislikesCount,
		CreatedAt:     c.CreatedAt,
	}
}

func toAdminCommentResponse(c model.Comment) dto.AdminCommentResponse {
	return dto.AdminCommentResponse{
		ID:          c.ID,
		ResourceID:  c.ResourceID,
		AuthorName:  c.AuthorName,
		AuthorEmail: c.AuthorEmail,
		Content:     c.Content,
		Status:      string(c.Status),
		IsVisible:   c.IsVisible,
		AIScore:     c.AIScore,
		AIReason:    c.AIReason,
		UserID:      c.UserID,
		IPAddress:   c.IPAddress,
		Device:      c.Device,
		Browser:     c.Browser,
		OS:          c.OS,
		Referrer:    c.Referrer,
		ModeratedAt: c.ModeratedAt,
		ModeratedBy: c.ModeratedBy,
		CreatedAt:   c.CreatedAt,
	}
}
