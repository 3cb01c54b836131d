package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrEmailTaken          = errors.New("email already in use")
	ErrDuplicateAccount    = errors.New("duplicate entry: username or email already exists")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnknownEmail        = errors.New("user not found")
	ErrInvalidResetToken   = errors.New("invalid or expired token")
	ErrResetThrottled      = errors.New("too many reset requests, try again later")
)
