package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AkshadGawde/linktree-api/internal/core/domain"
	"github.com/AkshadGawde/linktree-api/internal/core/ports"
)

const (
	// DefaultResetTokenTTL is how long a password reset token stays valid.
	DefaultResetTokenTTL = 15 * time.Minute

	resetTokenBytes = 32

	msgRegistered    = "User registered successfully"
	msgResetSent     = "Password reset email sent!"
	msgResetComplete = "Password reset successful!"
	resetMailSubject = "Password Reset Request"
)

// AccountDeps groups the collaborators of AccountService.
type AccountDeps struct {
	Users     ports.UserRepository
	Referrals ports.ReferralRepository
	Tx        ports.Transactor
	Hasher    ports.PasswordHasher
	Tokens    ports.TokenSigner
	Mailer    ports.Mailer
	// Throttle is optional; nil disables reset request throttling.
	Throttle ports.ResetThrottle
}

// AccountOptions tunes AccountService behaviour.
type AccountOptions struct {
	// ResetURL is the frontend base URL the reset link points to.
	ResetURL string
	// ResetTokenTTL defaults to DefaultResetTokenTTL.
	ResetTokenTTL time.Duration
}

// AccountService implements registration, login, profile and password reset.
type AccountService struct {
	users     ports.UserRepository
	referrals ports.ReferralRepository
	tx        ports.Transactor
	hasher    ports.PasswordHasher
	tokens    ports.TokenSigner
	mailer    ports.Mailer
	throttle  ports.ResetThrottle

	resetURL string
	resetTTL time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func NewAccountService(deps AccountDeps, opts AccountOptions, logger zerolog.Logger) *AccountService {
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = DefaultResetTokenTTL
	}
	return &AccountService{
		users:     deps.Users,
		referrals: deps.Referrals,
		tx:        deps.Tx,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		mailer:    deps.Mailer,
		throttle:  deps.Throttle,
		resetURL:  strings.TrimRight(opts.ResetURL, "/"),
		resetTTL:  opts.ResetTokenTTL,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Register creates an account. When a referral code is supplied, the new
// user, the referral record and the referrer's counter increment are written
// as one unit of work.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", domain.ErrInvalidInput)
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	var referrer *domain.User
	if in.ReferralCode != "" {
		r, err := s.users.FindByReferralCode(ctx, in.ReferralCode)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.ErrInvalidReferralCode
			}
			return nil, fmt.Errorf("register: lookup referral code: %w", err)
		}
		referrer = r
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		ReferralCode: uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if referrer != nil {
		user.ReferredBy = referrer.ID
	}

	var created *domain.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.users.Create(ctx, user)
		if err != nil {
			return err
		}
		if referrer == nil {
			return nil
		}

		if _, err := s.referrals.Create(ctx, &domain.Referral{
			ReferrerID:     referrer.ID,
			ReferredUserID: created.ID,
			DateReferred:   now,
			Status:         domain.ReferralSuccessful,
		}); err != nil {
			return fmt.Errorf("record referral: %w", err)
		}
		if err := s.users.IncrementReferrals(ctx, referrer.ID); err != nil {
			return fmt.Errorf("increment referrals: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	if referrer != nil {
		s.logger.Info().
			Str("referrer_id", referrer.ID).
			Str("referred_user_id", created.ID).
			Msg("referral recorded")
	}
	s.logger.Info().Str("user_id", created.ID).Msg("user registered")

	return &ports.RegisterResult{Message: msgRegistered, ReferralCode: created.ReferralCode}, nil
}

// Login verifies credentials and returns a session token. Unknown email and
// wrong password yield the same error.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return token, nil
}

// GetProfile returns the account with credential fields stripped.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// ForgotPassword issues a reset token for email and mails the reset link.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrUnknownEmail
		}
		return "", fmt.Errorf("forgot password: %w", err)
	}

	claimed := false
	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, user.Email)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("reset throttle check failed, continuing")
		} else if !allowed {
			return "", domain.ErrResetThrottled
		} else {
			claimed = true
		}
	}

	if err := s.issueResetToken(ctx, user); err != nil {
		if claimed {
			s.releaseThrottle(ctx, user)
		}
		return "", fmt.Errorf("forgot password: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password reset requested")
	return msgResetSent, nil
}

// ResetPassword sets a new password for the holder of a valid reset token
// and consumes the token.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if token == "" || newPassword == "" {
		return "", fmt.Errorf("%w: token and new password are required", domain.ErrInvalidInput)
	}

	now := s.now()
	user, err := s.users.FindByResetToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidResetToken
		}
		return "", fmt.Errorf("reset password: %w", err)
	}
	if !user.HasActiveResetToken(token, now) {
		return "", domain.ErrInvalidResetToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", fmt.Errorf("reset password: hash password: %w", err)
	}

	if err := s.users.ResetPassword(ctx, user.ID, token, hash); err != nil {
		if errors.Is(err, domain.ErrInvalidResetToken) {
			return "", err
		}
		return "", fmt.Errorf("reset password: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password reset completed")
	return msgResetComplete, nil
}

// issueResetToken stores a fresh token and mails the reset link.
func (s *AccountService) issueResetToken(ctx context.Context, user *domain.User) error {
	token, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, token, s.now().Add(s.resetTTL)); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.mailer.Send(ctx, user.Email, resetMailSubject, s.resetMailBody(token)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// releaseThrottle frees the cooldown slot taken by a request that failed.
func (s *AccountService) releaseThrottle(ctx context.Context, user *domain.User) {
	if err := s.throttle.Release(context.WithoutCancel(ctx), user.Email); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("reset throttle release failed")
	}
}

func (s *AccountService) resetMailBody(token string) string {
	link := s.resetURL + "/reset-password?token=" + token
	return fmt.Sprintf(
		`<p>Click <a href="%s">here</a> to reset your password. This link expires in %d minutes.</p>`,
		link, int(s.resetTTL.Minutes()),
	)
}

// newResetToken returns 256 bits of randomness, hex encoded.
func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
