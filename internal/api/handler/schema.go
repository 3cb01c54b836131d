package handler

import "github.com/AkshadGawde/linktree-api/internal/core/domain"

// --- Requests ---

type registerRequest struct {
	Username     string `json:"username"     validate:"required,max=64"`
	Email        string `json:"email"        validate:"required,email"`
	Password     string `json:"password"     validate:"required"`
	ReferralCode string `json:"referralCode" validate:"omitempty"`
}

// loginRequest carries no validation tags: missing credentials are rejected
// as invalid credentials by the account service.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"       validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// --- Responses ---

type registerResponse struct {
	Message      string `json:"message"`
	ReferralCode string `json:"referralCode"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type dashboardResponse struct {
	User *domain.User `json:"user"`
}

type errorResponse struct {
	Error string `json:"error"`
}
