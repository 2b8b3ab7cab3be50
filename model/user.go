package model

import "time"

// User is an anonymous commenter identified by a client device id.
type User struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	DeviceID      *string   `json:"device_id,omitempty" gorm:"uniqueIndex;size:128"`
	CommentCount  int       `json:"comment_count" gorm:"not null;default:0"`
	LastIP        string    `json:"-" gorm:"size:64"`
	LastUserAgent string    `json:"-" gorm:"type:text"`
	Device        string    `json:"device" gorm:"size:32"`
	Browser       string    `json:"browser" gorm:"size:64"`
	OS            string    `json:"os" gorm:"size:64"`
	LastSeenAt    time.Time `json:"last_seen_at"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null"`
}
