package entity

import (
	"time"
)

const (
	RoleStaff   = "STAFF"
	RoleManager = "MANAGER"
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}

type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Email         string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	PhoneNumber   string    `gorm:"size:20" json:"phone_number"`
	Role          string    `gorm:"size:20;not null;default:STAFF" json:"role"`
	EmailVerified bool      `gorm:"not null;default:false" json:"email_verified"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	Profile       *Profile  `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}
