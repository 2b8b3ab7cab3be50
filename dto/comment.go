package dto

import (
	"strconv"
	"strings"
	"time"
)

// ==================== COMMENT REQUEST DTOs ====================

// ResourceID accepts both 42 and "42". Anything that is not an integer
// decodes to 0 and fails validation downstream.
type ResourceID int

func (r *ResourceID) UnmarshalJSON(b []byte) error {
	n, err := strconv.Atoi(strings.Trim(string(b), `"`))
	if err != nil {
		n = 0
	}
	*r = ResourceID(n)
	return nil
}

type SubmitCommentRequest struct {
	ResourceID  ResourceID `json:"resource_id" swaggertype:"integer" example:"42"`
	AuthorName  string     `json:"author_name" example:"Mehmet"`
	AuthorEmail string     `json:"author_email,omitempty" example:"mehmet@example.com"`
	Content     string     `json:"content" example:"Same P0420 code on my Corolla, replacing the O2 sensor fixed it."`
	UserID      string     `json:"user_id,omitempty"`
	DeviceID    string     `json:"device_id,omitempty" example:"a1b2c3d4"`
}

type ModerateCommentRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject" example:"approve"`
}

func (r ModerateCommentRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ReactionRequest struct {
	Type string `json:"type" validate:"required,oneof=like dislike" example:"like"`
}

func (r ReactionRequest) Validate() error {
	return GetValidator().Struct(r)
}

// ==================== COMMENT RESPONSE DTOs ====================

type SubmitCommentResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status" example:"pending"`
	Message string `json:"message"`
}

type CommentResponse struct {
	ID            string    `json:"id"`
	ResourceID    int       `json:"resource_id"`
	AuthorName    string    `json:"author_name"`
	Content       string    `json:"content"`
	LikesCount    int       `json:"likes_count"`
	DislikesCount int       `json:"dislikes_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type CommentListResponse struct {
	Comments []CommentResponse `json:"comments"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type AdminCommentResponse struct {
	ID          string     `json:"id"`
	ResourceID  int        `json:"resource_id"`
	AuthorName  string     `json:"author_name"`
	AuthorEmail string     `json:"author_email,omitempty"`
	Content     string     `json:"content"`
	Status      string     `json:"status"`
	IsVisible   bool       `json:"is_visible"`
	AIScore     float64    `json:"ai_score"`
	AIReason    string     `json:"ai_reason"`
	UserID      *string    `json:"user_id,omitempty"`
	IPAddress   string     `json:"ip_address"`
	Device      string     `json:"device"`
	Browser     string     `json:"browser"`
	OS          string     `json:"os"`
	Referrer    string     `json:"referrer,omitempty"`
	ModeratedAt *time.Time `json:"moderated_at,omitempty"`
	ModeratedBy *string    `json:"moderated_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type AdminCommentListResponse struct {
	Comments []AdminCommentResponse `json:"comments"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	Limit    int                    `json:"limit"`
}

type ReactionResponse struct {
	ID            string `json:"id"`
	LikesCount    int    `json:"likes_count"`
	DislikesCount int    `json:"dislikes_count"`
}

type ModerationStatsResponse struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}
