package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nesivarusta/nvu_api/dto"
	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/clientinfo"
	"github.com/nesivarusta/nvu_api/services/limiter"
	"github.com/nesivarusta/nvu_api/services/scoring"
	"github.com/nesivarusta/nvu_api/shared"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultThreshold = 0.3
	DefaultPageSize  = 20
	MaxPageSize      = 100

	safeDefaultScore = 0.5
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func (a Action) status() (model.CommentStatus, bool) {
	switch a {
	case ActionApprove:
		return model.CommentApproved, true
	case ActionReject:
		return model.CommentRejected, true
	}
	return "", false
}

type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	HasActive(ctx context.Context, resourceID int, fingerprint string) (bool, error)
	Get(ctx context.Context, id string) (*model.Comment, error)
	// UpdateModeration writes the moderation fields only if the stored status is
	// still pending, reporting whether a row changed.
	UpdateModeration(ctx context.Context, c *model.Comment) (bool, error)
	ListApproved(ctx context.Context, resourceID, offset, limit int) ([]model.Comment, int64, error)
	ListByStatus(ctx context.Context, status *model.CommentStatus, offset, limit int) ([]model.Comment, int64, error)
	IncrementReaction(ctx context.Context, id string, reaction Reaction) (*model.Comment, error)
	CountByStatus(ctx context.Context) (map[model.CommentStatus]int64, error)
}

type UserResolver interface {
	FindOrCreateByDeviceID(ctx context.Context, deviceID string, md clientinfo.Metadata) (string, error)
	Exists(ctx context.Context, userID string) (bool, error)
	IncrementCommentCount(ctx context.Context, userID string) error
}

type RateLimiter interface {
	Check(ctx context.Context, identifier, actionClass string) (limiter.Result, error)
}

type Scorer interface {
	Score(ctx context.Context, text string) (*scoring.Verdict, error)
}

// Recorder receives pipeline events for metrics. Optional.
type Recorder interface {
	CommentSubmitted(status string)
	CommentModerated(action string)
	RateLimited(actionClass string)
}

type Deps struct {
	Store    CommentStore
	Users    UserResolver
	Limiter  RateLimiter
	Scorer   Scorer
	Recorder Recorder
}

type Options struct {
	Threshold    float64
	TimeProvider func() time.Time
}

// Submission is a comment as received from a client, before sanitisation.
type Submission struct {
	ResourceID  int                 `json:"resource_id" validate:"gt=0"`
	AuthorName  string              `json:"author_name" validate:"required,max=100"`
	AuthorEmail string              `json:"author_email" validate:"omitempty,max=255,basic_email"`
	Content     string              `json:"content" validate:"required,min=3,max=2000"`
	UserID      string              `json:"user_id" validate:"omitempty,max=128"`
	DeviceID    string              `json:"device_id" validate:"omitempty,max=128"`
	Client      clientinfo.Metadata `json:"-" validate:"-"`
}

type SubmitResult struct {
	ID     string
	Status model.CommentStatus
}

// Pipeline runs a comment from submission through scoring to moderation.
// A comment is never approved at creation; only Moderate moves it out of pending.
type Pipeline struct {
	store     CommentStore
	users     UserResolver
	limiter   RateLimiter
	scorer    Scorer
	recorder  Recorder
	sanitizer *Sanitizer
	threshold float64
	now       func() time.Time
}

func NewPipeline(deps Deps, opts Options) *Pipeline {
	p := &Pipeline{
		store:     deps.Store,
		users:     deps.Users,
		limiter:   deps.Limiter,
		scorer:    deps.Scorer,
		recorder:  deps.Recorder,
		sanitizer: NewSanitizer(),
		threshold: opts.Threshold,
		now:       time.Now,
	}
	if p.threshold <= 0 {
		p.threshold = DefaultThreshold
	}
	if opts.TimeProvider != nil {
		p.now = opts.TimeProvider
	}
	return p
}

// Submit rate-limits, validates, de-duplicates, scores and stores a comment,
// in that order. Each step can end the submission.
func (p *Pipeline) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	fingerprint := clientinfo.Fingerprint(sub.Client.IP, sub.DeviceID)

	if err := p.checkSubmitRate(ctx, sub); err != nil {
		return nil, err
	}

	sub = p.sanitize(sub)
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	active, err := p.store.HasActive(ctx, sub.ResourceID, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if active {
		return nil, ErrDuplicateSubmission
	}

	verdict := p.score(ctx, sub.Content)
	status := StatusFor(verdict, p.threshold)

	userID, err := p.resolveUser(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := p.now()
	comment := &model.Comment{
		ID:          id.String(),
		ResourceID:  sub.ResourceID,
		AuthorName:  sub.AuthorName,
		AuthorEmail: sub.AuthorEmail,
		Content:     sub.Content,
		AIScore:     verdict.Score,
		AIReason:    verdict.Reason,
		Fingerprint: fingerprint,
		UserID:      userID,
		IPAddress:   sub.Client.IP,
		UserAgent:   sub.Client.UserAgent,
		Device:      sub.Client.Device,
		Browser:     sub.Client.Browser,
		OS:          sub.Client.OS,
		Referrer:    sub.Client.Referrer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	comment.ApplyStatus(status)

	if err := p.store.Create(ctx, comment); err != nil {
		if errors.Is(err, ErrDuplicateSubmission) {
			return nil, ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("store comment: %w", err)
	}

	if userID != nil {
		if err := p.users.IncrementCommentCount(ctx, *userID); err != nil {
			log.WithError(err).WithField("user_id", *userID).Warn("Failed to increment comment count")
		}
	}

	if p.recorder != nil {
		p.recorder.CommentSubmitted(string(status))
	}

	log.WithFields(log.Fields{
		"comment_id":  comment.ID,
		"resource_id": comment.ResourceID,
		"status":      comment.Status,
		"ai_score":    comment.AIScore,
	}).Info("Comment submitted")

	return &SubmitResult{ID: comment.ID, Status: comment.Status}, nil
}

// checkSubmitRate consults the limiter for the network address and, when given,
// the user or device identity. Both checks run so both windows record the attempt.
func (p *Pipeline) checkSubmitRate(ctx context.Context, sub Submission) error {
	identifiers := []string{"ip:" + sub.Client.IP}
	switch {
	case sub.UserID != "":
		identifiers = append(identifiers, "user:"+sub.UserID)
	case sub.DeviceID != "":
		identifiers = append(identifiers, "device:"+sub.DeviceID)
	}

	var denied *RateLimitedError
	for _, identifier := range identifiers {
		res, err := p.limiter.Check(ctx, identifier, shared.ActionComment)
		if err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
		if res.Allowed {
			continue
		}
		if denied == nil {
			denied = &RateLimitedError{ActionClass: shared.ActionComment}
		}
		if res.RetryAfter > denied.RetryAfter {
			denied.RetryAfter = res.RetryAfter
		}
	}

	if denied != nil {
		if p.recorder != nil {
			p.recorder.RateLimited(shared.ActionComment)
		}
		return denied
	}
	return nil
}

func (p *Pipeline) sanitize(sub Submission) Submission {
	sub.AuthorName = p.sanitizer.Text(sub.AuthorName)
	sub.AuthorEmail = p.sanitizer.Text(sub.AuthorEmail)
	sub.Content = p.sanitizer.Text(sub.Content)
	return sub
}

func validateSubmission(sub Submission) error {
	err := dto.GetValidator().Struct(sub)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &ValidationFailure{Errors: dto.FormatValidationErrors(verrs)}
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// score never fails: any scorer problem degrades to a neutral pending verdict.
func (p *Pipeline) score(ctx context.Context, content string) *scoring.Verdict {
	if p.scorer == nil {
		return SafeDefault("automatic review not configured")
	}

	verdict, err := p.scorer.Score(ctx, content)
	if err != nil {
		log.WithError(err).Warn("Content scoring failed, using safe default")
		return SafeDefault("automatic review unavailable")
	}
	return verdict
}

func SafeDefault(reason string) *scoring.Verdict {
	return &scoring.Verdict{Score: safeDefaultScore, Status: scoring.StatusPending, Reason: reason}
}

// StatusFor maps a verdict onto the creation status. The scorer may only hold
// a comment back, never publish it.
func StatusFor(v *scoring.Verdict, threshold float64) model.CommentStatus {
	if v.Score < threshold || v.Status == scoring.StatusRejected {
		return model.CommentRejected
	}
	return model.CommentPending
}

func (p *Pipeline) resolveUser(ctx context.Context, sub Submission) (*string, error) {
	if sub.DeviceID != "" {
		id, err := p.users.FindOrCreateByDeviceID(ctx, sub.DeviceID, sub.Client)
		if err != nil {
			return nil, err
		}
		return &id, nil
	}

	if sub.UserID != "" {
		ok, err := p.users.Exists(ctx, sub.UserID)
		if err != nil {
			return nil, err
		}
		if ok {
			id := sub.UserID
			return &id, nil
		}
	}
	return nil, nil
}

// Moderate approves or rejects a pending comment. Approved and rejected are
// terminal, a second call returns ErrAlreadyModerated.
func (p *Pipeline) Moderate(ctx context.Context, id string, action Action, adminID string) (*model.Comment, error) {
	status, ok := action.status()
	if !ok {
		return nil, ErrInvalidAction
	}

	comment, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.Status != model.CommentPending {
		return nil, ErrAlreadyModerated
	}

	now := p.now()
	comment.ApplyStatus(status)
	comment.ModeratedAt = &now
	comment.ModeratedBy = &adminID
	comment.UpdatedAt = now

	updated, err := p.store.UpdateModeration(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	if !updated {
		return nil, ErrAlreadyModerated
	}

	if p.recorder != nil {
		p.recorder.CommentModerated(string(action))
	}

	log.WithFields(log.Fields{
		"comment_id": comment.ID,
		"action":     action,
		"admin_id":   adminID,
	}).Info("Comment moderated")

	return comment, nil
}

func Page(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// ListApproved returns the visible comments of a resource, newest first.
func (p *Pipeline) ListApproved(ctx context.Context, resourceID, page, limit int) ([]model.Comment, int64, error) {
	if resourceID <= 0 {
		return nil, 0, invalidField("resource_id", "resource_id must be a positive integer")
	}
	page, limit = Page(page, limit)
	return p.store.ListApproved(ctx, resourceID, (page-1)*limit, limit)
}

// ListForReview lists comments for administrators. An empty status means
// pending, "all" lists every status.
func (p *Pipeline) ListForReview(ctx context.Context, status string, page, limit int) ([]model.Comment, int64, error) {
	var filter *model.CommentStatus
	switch status {
	case "":
		pending := model.CommentPending
		filter = &pending
	case "all":
	default:
		s := model.CommentStatus(status)
		if !s.Valid() {
			return nil, 0, invalidField("status", "status must be one of: pending approved rejected all")
		}
		filter = &s
	}

	page, limit = Page(page, limit)
	return p.store.ListByStatus(ctx, filter, (page-1)*limit, limit)
}

// React adds a like or dislike to an approved comment.
func (p *Pipeline) React(ctx context.Context, id string, reaction Reaction, identifier string) (*model.Comment, error) {
	if reaction != ReactionLike && reaction != ReactionDislike {
		return nil, invalidField("type", "type must be one of: like dislike")
	}

	res, err := p.limiter.Check(ctx, identifier, shared.ActionReaction)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	if !res.Allowed {
		if p.recorder != nil {
			p.recorder.RateLimited(shared.ActionReaction)
		}
		return nil, &RateLimitedError{ActionClass: shared.ActionReaction, RetryAfter: res.RetryAfter}
	}

	comment, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.Status != model.CommentApproved {
		return nil, ErrNotFound
	}

	return p.store.IncrementReaction(ctx, id, reaction)
}

func (p *Pipeline) Stats(ctx context.Context) (map[model.CommentStatus]int64, error) {
	return p.store.CountByStatus(ctx)
}
