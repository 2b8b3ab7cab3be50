package dto

import "time"

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,max=100" example:"admin"`
	Password string `json:"password" validate:"required,max=200" example:"correct horse battery staple"`
}

func (r AdminLoginRequest) Validate() error {
	return GetValidator().Struct(r)
}

type AdminLoginResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
