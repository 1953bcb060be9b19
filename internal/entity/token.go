package entity

import "time"

const (
	TokenPurposeVerifyEmail   = "verify_email"
	TokenPurposePasswordReset = "password_reset"
)

// EmailToken backs both the email-verification OTP flow and the single-use
// password-reset link.
type EmailToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Token     string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	OTP       string     `gorm:"size:6" json:"-"`
	Purpose   string     `gorm:"size:30;not null" json:"purpose"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (t *EmailToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *EmailToken) Used() bool {
	return t.UsedAt != nil
}
