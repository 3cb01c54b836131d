package domain

import (
	"testing"
	"time"
)

func TestUser_HasActiveResetToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(15 * time.Minute)
	past := now.Add(-time.Second)

	tests := []struct {
		name  string
		user  User
		token string
		want  bool
	}{
		{"no token stored", User{}, "abc", false},
		{"token without expiry", User{ResetPasswordToken: "abc"}, "abc", false},
		{"matching and fresh", User{ResetPasswordToken: "abc", ResetPasswordExpires: &future}, "abc", true},
		{"matching but expired", User{ResetPasswordToken: "abc", ResetPasswordExpires: &past}, "abc", false},
		{"expires exactly now", User{ResetPasswordToken: "abc", ResetPasswordExpires: &now}, "abc", false},
		{"different token", User{ResetPasswordToken: "abc", ResetPasswordExpires: &future}, "xyz", false},
		{"empty candidate", User{ResetPasswordToken: "abc", ResetPasswordExpires: &future}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.HasActiveResetToken(tt.token, now); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestReferralStatus_Valid(t *testing.T) {
	for _, s := range []ReferralStatus{ReferralPending, ReferralSuccessful} {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []ReferralStatus{"", "completed", "SUCCESSFUL"} {
		if s.Valid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestUser_Public(t *testing.T) {
	exp := time.Now()
	u := &User{ID: "u1", Email: "a@x.com", PasswordHash: "hash", ResetPasswordToken: "tok", ResetPasswordExpires: &exp}

	pub := u.Public()
	if pub.PasswordHash != "" || pub.ResetPasswordToken != "" || pub.ResetPasswordExpires != nil {
		t.Fatalf("secrets not stripped: %+v", pub)
	}
	if pub.ID != "u1" || pub.Email != "a@x.com" {
		t.Fatalf("public fields lost: %+v", pub)
	}
	if u.PasswordHash != "hash" {
		t.Fatalf("Public mutated the receiver")
	}
}
