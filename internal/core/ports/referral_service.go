package ports

import (
	"context"

	"github.com/AkshadGawde/linktree-api/internal/core/domain"
)

// ReferralService exposes a referrer's referrals and aggregate counts.
type ReferralService interface {
	GetReferrals(ctx context.Context, userID string) ([]domain.ReferralDetail, error)
	GetReferralStats(ctx context.Context, userID string) (*domain.ReferralStats, error)
}
