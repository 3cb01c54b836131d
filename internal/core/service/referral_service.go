package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AkshadGawde/linktree-api/internal/core/domain"
	"github.com/AkshadGawde/linktree-api/internal/core/ports"
)

// ReferralService reads a referrer's referral records.
type ReferralService struct {
	repo   ports.ReferralRepository
	logger zerolog.Logger
}

func NewReferralService(repo ports.ReferralRepository, logger zerolog.Logger) *ReferralService {
	return &ReferralService{repo: repo, logger: logger}
}

// GetReferrals lists the user's referrals with the referred users' public fields.
func (s *ReferralService) GetReferrals(ctx context.Context, userID string) ([]domain.ReferralDetail, error) {
	items, err := s.repo.ListByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	if items == nil {
		items = []domain.ReferralDetail{}
	}
	s.logger.Debug().Str("user_id", userID).Int("count", len(items)).Msg("referrals listed")
	return items, nil
}

// GetReferralStats counts the user's referrals. The total is derived from
// the per-status counts so it always equals successful + pending.
func (s *ReferralService) GetReferralStats(ctx context.Context, userID string) (*domain.ReferralStats, error) {
	counts, err := s.repo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("referral stats: %w", err)
	}

	stats := &domain.ReferralStats{
		SuccessfulReferrals: counts[domain.ReferralSuccessful],
		PendingReferrals:    counts[domain.ReferralPending],
	}
	stats.TotalReferrals = stats.SuccessfulReferrals + stats.PendingReferrals
	return stats, nil
}
