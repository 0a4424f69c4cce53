package auth

import (
	"crowdx-backend/internal/api/v1/account"
	"time"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type VerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// LogoutRequest optionally names the refresh token to revoke alongside the
// access token used to call logout.
type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

type TokenPairResponse struct {
	Access           string                `json:"access"`
	Refresh          string                `json:"refresh"`
	AccessExpiresAt  time.Time             `json:"access_expires_at"`
	RefreshExpiresAt time.Time             `json:"refresh_expires_at"`
	User             *account.UserResponse `json:"user,omitempty"`
}
