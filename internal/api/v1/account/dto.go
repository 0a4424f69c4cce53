package account

import (
	"crowdx-backend/internal/models"
	"time"
)

// UserResponse defines the response structure for user information.
type UserResponse struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	PhoneNumber *string    `json:"phone_number"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	IsActive    bool       `json:"is_active"`
	DateJoined  time.Time  `json:"date_joined"`
	LastLogin   *time.Time `json:"last_login"`
	Version     int        `json:"version"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsActive:    u.IsActive,
		DateJoined:  u.CreatedAt,
		LastLogin:   u.LastLogin,
		Version:     u.Version,
	}
}

type RegisterRequest struct {
	Username    string  `json:"username" binding:"required,max=150"`
	Password    string  `json:"password" binding:"required,min=8"`
	Email       string  `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=20"`
	FirstName   string  `json:"first_name" binding:"max=150"`
	LastName    string  `json:"last_name" binding:"max=150"`
}

// UpdateProfileRequest only touches the fields that are present. Version,
// when sent, must match the stored profile version.
type UpdateProfileRequest struct {
	Email       *string `json:"email" binding:"omitempty,max=254"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=20"`
	FirstName   *string `json:"first_name" binding:"omitempty,max=150"`
	LastName    *string `json:"last_name" binding:"omitempty,max=150"`
	Version     *int    `json:"version" binding:"omitempty,min=1"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}
