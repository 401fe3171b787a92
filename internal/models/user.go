package models

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	Base
	Email    string         `gorm:"uniqueIndex;not null" json:"email"`
	Password string         `gorm:"not null" json:"-"`
	Name     string         `json:"name"`
	Role     UserRole       `gorm:"not null;default:'user'" json:"role"`
	Settings datatypes.JSON `json:"settings,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Session binds an issued token to a user; deleting the row logs the token out.
type Session struct {
	Base
	SID       string    `gorm:"uniqueIndex;not null" json:"-"`
	UserID    uint64    `gorm:"index;not null" json:"userId"`
	User      *User     `json:"user,omitempty"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsValidUserRole checks if a given role is valid
func IsValidUserRole(role UserRole) bool {
	switch role {
	case UserRoleAdmin, UserRoleUser:
		return true
	default:
		return false
	}
}
