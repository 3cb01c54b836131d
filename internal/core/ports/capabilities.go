package ports

import "context"

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// TokenSigner issues and verifies session tokens carrying a user ID.
type TokenSigner interface {
	Issue(userID string) (string, error)
	// Verify checks signature and expiry and returns the embedded user ID.
	Verify(token string) (string, error)
}

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ResetThrottle limits how often a password reset may be requested per email.
type ResetThrottle interface {
	// Allow reports whether a reset may be requested now and, if so, starts
	// the cooldown window.
	Allow(ctx context.Context, email string) (bool, error)
	// Release ends the cooldown window early so a failed request can be retried.
	Release(ctx context.Context, email string) error
}
