package domain

import "time"

// User models a registered account.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	ReferralCode   string    `json:"referralCode"`
	ReferredBy     string    `json:"referredBy,omitempty"`
	TotalReferrals int64     `json:"totalReferrals"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Reset fields are set and cleared together and never serialized.
	ResetPasswordToken   string     `json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
}

// HasActiveResetToken reports whether token matches the stored reset token
// and has not expired at now.
func (u *User) HasActiveResetToken(token string, now time.Time) bool {
	if u.ResetPasswordToken == "" || u.ResetPasswordExpires == nil {
		return false
	}
	return u.ResetPasswordToken == token && now.Before(*u.ResetPasswordExpires)
}

// Public returns a copy of u without credential and reset-token fields.
func (u *User) Public() *User {
	clone := *u
	clone.PasswordHash = ""
	clone.ResetPasswordToken = ""
	clone.ResetPasswordExpires = nil
	return &clone
}
