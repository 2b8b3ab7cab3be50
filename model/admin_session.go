package model

import "time"

type AdminSession struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	AdminID   string     `json:"admin_id" gorm:"not null;index;size:100"`
	IPAddress string     `json:"ip_address" gorm:"size:64"`
	UserAgent string     `json:"user_agent" gorm:"type:text"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"not null"`
}

func (s *AdminSession) Live(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
