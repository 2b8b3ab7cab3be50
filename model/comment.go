package model

import (
	"fmt"
	"time"
)

type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
)

// Active reports whether the status still holds the (resource, fingerprint) slot.
func (s CommentStatus) Active() bool {
	return s == CommentPending || s == CommentApproved
}

func (s CommentStatus) Valid() bool {
	return s == CommentPending || s == CommentApproved || s == CommentRejected
}

// Comment is a public comment attached to a diagnosis resource
type Comment struct {
	ID          string        `json:"id" gorm:"primaryKey"`
	ResourceID  int           `json:"resource_id" gorm:"not null;index:idx_comments_resource_status,priority:1"`
	AuthorName  string        `json:"author_name" gorm:"size:100;not null"`
	AuthorEmail string        `json:"author_email,omitempty" gorm:"size:255"`
	Content     string        `json:"content" gorm:"type:text;not null"`
	Status      CommentStatus `json:"status" gorm:"size:16;not null;index:idx_comments_resource_status,priority:2"`
	IsVisible   bool          `json:"is_visible" gorm:"not null;default:false"`

	AIScore  float64 `json:"ai_score" gorm:"not null"`
	AIReason string  `json:"ai_reason" gorm:"type:text"`

	Fingerprint string  `json:"-" gorm:"size:64;not null;index"`
	UserID      *string `json:"user_id,omitempty" gorm:"index"`
	// ActiveSlot is "<resource>:<fingerprint>" while pending or approved and NULL once
	// rejected. The unique index is what stops two concurrent submissions from the
	// same client both landing.
	ActiveSlot *string `json:"-" gorm:"size:128;uniqueIndex"`

	LikesCount    int `json:"likes_count" gorm:"not null;default:0"`
	DislikesCount int `json:"dislikes_count" gorm:"not null;default:0"`

	IPAddress string `json:"-" gorm:"size:64"`
	UserAgent string `json:"-" gorm:"type:text"`
	Device    string `json:"-" gorm:"size:32"`
	Browser   string `json:"-" gorm:"size:64"`
	OS        string `json:"-" gorm:"size:64"`
	Referrer  string `json:"-" gorm:"type:text"`

	ModeratedAt *time.Time `json:"moderated_at,omitempty"`
	ModeratedBy *string    `json:"moderated_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;index"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"not null"`
}

func ActiveSlotKey(resourceID int, fingerprint string) string {
	return fmt.Sprintf("%d:%s", resourceID, fingerprint)
}

// ApplyStatus sets the status together with the fields derived from it.
func (c *Comment) ApplyStatus(status CommentStatus) {
	c.Status = status
	c.IsVisible = status == CommentApproved
	if status.Active() {
		slot := ActiveSlotKey(c.ResourceID, c.Fingerprint)
		c.ActiveSlot = &slot
	} else {
		c.ActiveSlot = nil
	}
}
