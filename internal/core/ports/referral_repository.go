package ports

import (
	"context"

	"github.com/AkshadGawde/linktree-api/internal/core/domain"
)

// ReferralRepository defines persistence operations for referrals.
type ReferralRepository interface {
	Create(ctx context.Context, referral *domain.Referral) (*domain.Referral, error)
	// ListByReferrer returns the referrer's referrals in insertion order,
	// joined with the referred users' public fields.
	ListByReferrer(ctx context.Context, referrerID string) ([]domain.ReferralDetail, error)
	// CountByStatus counts the referrer's referrals grouped by status.
	// Statuses with no referrals are absent from the map.
	CountByStatus(ctx context.Context, referrerID string) (map[domain.ReferralStatus]int64, error)
}
