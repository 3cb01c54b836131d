package ports

import (
	"context"

	"github.com/AkshadGawde/linktree-api/internal/core/domain"
)

// RegisterInput carries the data needed to create an account.
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	ReferralCode string // optional
}

// RegisterResult is returned after a successful registration.
type RegisterResult struct {
	Message      string
	ReferralCode string
}

// AccountService defines account lifecycle use cases.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	Login(ctx context.Context, email, password string) (string, error)
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
}
