package models

import "time"

// User is the account record. Profile fields live on the same row as the
// credentials.
type User struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time  `json:"date_joined"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Username    string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"size:254;default:''" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	PhoneNumber *string    `gorm:"size:20" json:"phone_number"`
	FirstName   string     `gorm:"size:150;default:''" json:"first_name"`
	LastName    string     `gorm:"size:150;default:''" json:"last_name"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	IsStaff     bool       `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser bool       `gorm:"not null;default:false" json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login"`
	Version     int        `gorm:"not null;default:1" json:"version"`
}
