package domain

import "time"

// ReferralStatus represents the lifecycle state of a referral.
type ReferralStatus string

const (
	ReferralPending    ReferralStatus = "pending"
	ReferralSuccessful ReferralStatus = "successful"
)

// Valid reports whether s is a known status.
func (s ReferralStatus) Valid() bool {
	return s == ReferralPending || s == ReferralSuccessful
}

// Referral links a referrer to a user who registered with their code.
type Referral struct {
	ID             string         `json:"id"`
	ReferrerID     string         `json:"referrerId"`
	ReferredUserID string         `json:"referredUserId"`
	DateReferred   time.Time      `json:"dateReferred"`
	Status         ReferralStatus `json:"status"`
}

// ReferredUser is the public view of a referred account.
type ReferredUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ReferralDetail is a referral joined with the referred user's public fields.
// ReferredUser is nil when the referred account no longer exists.
type ReferralDetail struct {
	Referral
	ReferredUser *ReferredUser `json:"referredUser"`
}

// ReferralStats aggregates a referrer's referrals by status.
type ReferralStats struct {
	TotalReferrals      int64 `json:"totalReferrals"`
	SuccessfulReferrals int64 `json:"successfulReferrals"`
	PendingReferrals    int64 `json:"pendingReferrals"`
}
