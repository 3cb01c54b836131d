package ports

import (
	"context"
	"time"

	"github.com/AkshadGawde/linktree-api/internal/core/domain"
)

// UserRepository defines persistence operations for accounts.
// Lookups return domain.ErrUserNotFound when nothing matches.
type UserRepository interface {
	// Create inserts a new user and returns it with its assigned ID.
	// Unique index violations are reported as domain.ErrDuplicateAccount.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByReferralCode(ctx context.Context, code string) (*domain.User, error)
	// FindByResetToken returns the user holding token if it expires after now.
	FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error)

	// SetResetToken stores a reset token and its expiry in a single write.
	SetResetToken(ctx context.Context, id, token string, expires time.Time) error
	// ResetPassword replaces the password hash and clears the reset fields,
	// provided the user still holds token. Otherwise it returns
	// domain.ErrInvalidResetToken.
	ResetPassword(ctx context.Context, id, token, passwordHash string) error
	// IncrementReferrals atomically adds one to the user's referral counter.
	IncrementReferrals(ctx context.Context, id string) error
}

// Transactor runs fn as a single unit of work. Repository calls made with
// the ctx passed to fn take part in the unit.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
