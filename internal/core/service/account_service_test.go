package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AkshadGawde/linktree-api/internal/core/domain"
	"github.com/AkshadGawde/linktree-api/internal/core/ports"
)

func register(t *testing.T, f *accountFixture, username, email, password, code string) *ports.RegisterResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username:     username,
		Email:        email,
		Password:     password,
		ReferralCode: code,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return res
}

func userByEmail(t *testing.T, f *accountFixture, email string) *domain.User {
	t.Helper()
	u, err := stubUserRepo{f.store}.FindByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("find %s: %v", email, err)
	}
	return u
}

func TestAccountService_Register_Success(t *testing.T) {
	f := newAccountFixture()

	res := register(t, f, "alice", "a@x.com", "pw1", "")
	if res.Message == "" || res.ReferralCode == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	u := userByEmail(t, f, "a@x.com")
	if u.PasswordHash == "pw1" || u.PasswordHash == "" {
		t.Fatalf("expected password to be hashed, got %q", u.PasswordHash)
	}
	if u.ReferralCode != res.ReferralCode {
		t.Fatalf("returned code %q does not match stored %q", res.ReferralCode, u.ReferralCode)
	}
	if u.ReferredBy != "" || u.TotalReferrals != 0 {
		t.Fatalf("fresh user should have no referral data: %+v", u)
	}
	if len(f.store.referrals) != 0 {
		t.Fatalf("expected no referrals, got %d", len(f.store.referrals))
	}
	if f.tx.calls != 1 {
		t.Fatalf("expected one unit of work, got %d", f.tx.calls)
	}
}

func TestAccountService_Register_UniqueReferralCodes(t *testing.T) {
	f := newAccountFixture()
	seen := make(map[string]struct{})

	for i := 0; i < 50; i++ {
		name := "user" + string(rune('a'+i%26)) + strings.Repeat("x", i/26)
		res := register(t, f, name, name+"@x.com", "pw", "")
		if _, dup := seen[res.ReferralCode]; dup {
			t.Fatalf("duplicate referral code %q", res.ReferralCode)
		}
		seen[res.ReferralCode] = struct{}{}
	}
}

func TestAccountService_Register_Validation(t *testing.T) {
	f := newAccountFixture()

	cases := []ports.RegisterInput{
		{Email: "a@x.com", Password: "pw"},
		{Username: "alice", Password: "pw"},
		{Username: "alice", Email: "a@x.com"},
	}
	for _, in := range cases {
		if _, err := f.svc.Register(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", in, err)
		}
	}
}

func TestAccountService_Register_DuplicateEmail(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw1", "")

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice2", Email: "a@x.com", Password: "pw"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAccountService_Register_DuplicateUsernameSurfacesAsDuplicate(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw1", "")

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Email: "other@x.com", Password: "pw"})
	if !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestAccountService_Register_InvalidReferralCode(t *testing.T) {
	f := newAccountFixture()

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: "bob", Email: "b@x.com", Password: "pw2", ReferralCode: "nope",
	})
	if !errors.Is(err, domain.ErrInvalidReferralCode) {
		t.Fatalf("expected ErrInvalidReferralCode, got %v", err)
	}
	if len(f.store.users) != 0 {
		t.Fatalf("no user should be created on invalid code")
	}
}

func TestAccountService_Register_WithReferralCode(t *testing.T) {
	f := newAccountFixture()
	alice := register(t, f, "alice", "a@x.com", "pw1", "")

	register(t, f, "bob", "b@x.com", "pw2", alice.ReferralCode)

	aliceUser := userByEmail(t, f, "a@x.com")
	bobUser := userByEmail(t, f, "b@x.com")

	if aliceUser.TotalReferrals != 1 {
		t.Fatalf("expected alice.totalReferrals == 1, got %d", aliceUser.TotalReferrals)
	}
	if bobUser.ReferredBy != aliceUser.ID {
		t.Fatalf("expected bob.referredBy == %s, got %s", aliceUser.ID, bobUser.ReferredBy)
	}
	if len(f.store.referrals) != 1 {
		t.Fatalf("expected exactly one referral, got %d", len(f.store.referrals))
	}
	ref := f.store.referrals[0]
	if ref.ReferrerID != aliceUser.ID || ref.ReferredUserID != bobUser.ID || ref.Status != domain.ReferralSuccessful {
		t.Fatalf("unexpected referral: %+v", ref)
	}
	if !ref.DateReferred.Equal(f.clock) {
		t.Fatalf("expected dateReferred %v, got %v", f.clock, ref.DateReferred)
	}
}

func TestAccountService_Register_ReferralFailurePropagates(t *testing.T) {
	f := newAccountFixture()
	alice := register(t, f, "alice", "a@x.com", "pw1", "")
	f.store.referralErr = errors.New("write conflict")

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: "bob", Email: "b@x.com", Password: "pw2", ReferralCode: alice.ReferralCode,
	})
	if err == nil || !strings.Contains(err.Error(), "write conflict") {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
	if errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("store error must not be reported as duplicate")
	}
	if userByEmail(t, f, "a@x.com").TotalReferrals != 0 {
		t.Fatalf("counter must not move when the referral write fails")
	}
}

func TestAccountService_CounterMatchesReferralCount(t *testing.T) {
	f := newAccountFixture()
	alice := register(t, f, "alice", "a@x.com", "pw", "")
	carol := register(t, f, "carol", "c@x.com", "pw", "")

	register(t, f, "bob", "b@x.com", "pw", alice.ReferralCode)
	register(t, f, "dan", "d@x.com", "pw", alice.ReferralCode)
	register(t, f, "eve", "e@x.com", "pw", carol.ReferralCode)
	register(t, f, "fay", "f@x.com", "pw", "")

	referrals := NewReferralService(stubReferralRepo{f.store}, discardLogger)
	for _, email := range []string{"a@x.com", "c@x.com", "f@x.com"} {
		u := userByEmail(t, f, email)
		stats, err := referrals.GetReferralStats(context.Background(), u.ID)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats.TotalReferrals != u.TotalReferrals {
			t.Fatalf("%s: counter %d diverges from aggregate %d", email, u.TotalReferrals, stats.TotalReferrals)
		}
	}
}

func TestAccountService_Login(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "carol", "carol@example.com", "s3cret", "")
	carol := userByEmail(t, f, "carol@example.com")

	token, err := f.svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	id, err := f.tokens.Verify(token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if id != carol.ID {
		t.Fatalf("expected token for %s, got %s", carol.ID, id)
	}
}

func TestAccountService_Login_FailuresAreIndistinguishable(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "dave", "dave@example.com", "goodpass", "")

	_, wrongPass := f.svc.Login(context.Background(), "dave@example.com", "badpass")
	_, unknown := f.svc.Login(context.Background(), "ghost@example.com", "goodpass")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", wrongPass)
	}
	if wrongPass != unknown {
		t.Fatalf("expected identical errors, got %v and %v", wrongPass, unknown)
	}
}

func TestAccountService_GetProfile(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw", "")
	alice := userByEmail(t, f, "a@x.com")
	if _, err := f.svc.ForgotPassword(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}

	profile, err := f.svc.GetProfile(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Username != "alice" || profile.Email != "a@x.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.PasswordHash != "" || profile.ResetPasswordToken != "" || profile.ResetPasswordExpires != nil {
		t.Fatalf("credential fields leaked: %+v", profile)
	}

	if _, err := f.svc.GetProfile(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAccountService_ForgotPassword_SetsTokenAndSendsMail(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw1", "")

	msg, err := f.svc.ForgotPassword(context.Background(), "a@x.com")
	if err != nil || msg == "" {
		t.Fatalf("forgot password: %q %v", msg, err)
	}

	u := userByEmail(t, f, "a@x.com")
	if len(u.ResetPasswordToken) != 64 {
		t.Fatalf("expected 64 hex chars (256 bits), got %d", len(u.ResetPasswordToken))
	}
	if u.ResetPasswordExpires == nil || !u.ResetPasswordExpires.Equal(f.clock.Add(15*time.Minute)) {
		t.Fatalf("expected expiry now+15m, got %v", u.ResetPasswordExpires)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(f.mailer.sent))
	}
	mail := f.mailer.sent[0]
	if mail.to != "a@x.com" || mail.subject != "Password Reset Request" {
		t.Fatalf("unexpected mail envelope: %+v", mail)
	}
	wantLink := "http://localhost:3000/reset-password?token=" + u.ResetPasswordToken
	if !strings.Contains(mail.body, wantLink) {
		t.Fatalf("mail body missing link %q: %s", wantLink, mail.body)
	}
}

func TestAccountService_ForgotPassword_UnknownEmail(t *testing.T) {
	f := newAccountFixture()

	if _, err := f.svc.ForgotPassword(context.Background(), "ghost@x.com"); !errors.Is(err, domain.ErrUnknownEmail) {
		t.Fatalf("expected ErrUnknownEmail, got %v", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("no mail should be sent")
	}
}

func TestAccountService_ForgotPassword_MailFailure(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw1", "")
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.ForgotPassword(context.Background(), "a@x.com")
	if err == nil || !strings.Contains(err.Error(), "smtp down") {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestAccountService_ForgotPassword_Throttle(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw1", "")

	throttle := &stubThrottle{allow: false}
	f.svc.throttle = throttle
	if _, err := f.svc.ForgotPassword(context.Background(), "a@x.com"); !errors.Is(err, domain.ErrResetThrottled) {
		t.Fatalf("expected ErrResetThrottled, got %v", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("throttled request must not send mail")
	}

	throttle.allow = true
	throttle.err = errors.New("redis unavailable")
	if _, err := f.svc.ForgotPassword(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("throttle errors should not block resets, got %v", err)
	}
	if len(throttle.seen) != 2 || throttle.seen[0] != "a@x.com" {
		t.Fatalf("unexpected throttle calls: %v", throttle.seen)
	}
}

func TestAccountService_ForgotPassword_FailedSendCanBeRetried(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw1", "")
	f.svc.throttle = newWindowThrottle()

	f.mailer.err = errors.New("smtp down")
	if _, err := f.svc.ForgotPassword(context.Background(), "a@x.com"); err == nil {
		t.Fatalf("expected transport error")
	}

	f.mailer.err = nil
	if _, err := f.svc.ForgotPassword(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("retry after a failed send must not be throttled, got %v", err)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected 1 mail after retry, got %d", len(f.mailer.sent))
	}

	if _, err := f.svc.ForgotPassword(context.Background(), "a@x.com"); !errors.Is(err, domain.ErrResetThrottled) {
		t.Fatalf("successful request must keep the cooldown, got %v", err)
	}
}

func TestAccountService_ForgotPassword_ReleasesOnlyClaimedSlot(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw1", "")
	throttle := &stubThrottle{allow: true}
	f.svc.throttle = throttle

	if _, err := f.svc.ForgotPassword(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if len(throttle.released) != 0 {
		t.Fatalf("successful request must not release, got %v", throttle.released)
	}

	f.mailer.err = errors.New("smtp down")
	_, _ = f.svc.ForgotPassword(context.Background(), "a@x.com")
	if len(throttle.released) != 1 || throttle.released[0] != "a@x.com" {
		t.Fatalf("expected one release for a@x.com, got %v", throttle.released)
	}
}

// tokenOnlyRepo matches reset tokens without looking at the expiry.
type tokenOnlyRepo struct{ stubUserRepo }

func (r tokenOnlyRepo) FindByResetToken(_ context.Context, token string, _ time.Time) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ResetPasswordToken == token })
}

func TestAccountService_ResetPassword_RechecksExpiry(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw1", "")
	if _, err := f.svc.ForgotPassword(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	token := userByEmail(t, f, "a@x.com").ResetPasswordToken
	f.svc.users = tokenOnlyRepo{stubUserRepo{f.store}}

	f.advance(16 * time.Minute)
	if _, err := f.svc.ResetPassword(context.Background(), token, "newpw"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken for an expired match, got %v", err)
	}
	if userByEmail(t, f, "a@x.com").ResetPasswordToken != token {
		t.Fatalf("expired token must not be consumed")
	}
}

func TestAccountService_ResetPassword_Scenario(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw1", "")
	if _, err := f.svc.ForgotPassword(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	token := userByEmail(t, f, "a@x.com").ResetPasswordToken

	f.advance(10 * time.Minute)
	if _, err := f.svc.ResetPassword(context.Background(), token, "newpw"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	u := userByEmail(t, f, "a@x.com")
	if u.ResetPasswordToken != "" || u.ResetPasswordExpires != nil {
		t.Fatalf("reset fields should be cleared together: %+v", u)
	}
	if _, err := f.svc.Login(context.Background(), "a@x.com", "newpw"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "a@x.com", "pw1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected, got %v", err)
	}

	if _, err := f.svc.ResetPassword(context.Background(), token, "again"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("token reuse should fail with ErrInvalidResetToken, got %v", err)
	}
}

func TestAccountService_ResetPassword_ExpiredMatchesUnknown(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw1", "")
	if _, err := f.svc.ForgotPassword(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	token := userByEmail(t, f, "a@x.com").ResetPasswordToken

	f.advance(15 * time.Minute)
	_, expired := f.svc.ResetPassword(context.Background(), token, "newpw")
	_, unknown := f.svc.ResetPassword(context.Background(), "deadbeef", "newpw")

	if !errors.Is(expired, domain.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", expired)
	}
	if expired != unknown {
		t.Fatalf("expired and unknown tokens should fail identically: %v vs %v", expired, unknown)
	}
	if _, err := f.svc.Login(context.Background(), "a@x.com", "pw1"); err != nil {
		t.Fatalf("password must be unchanged after failed reset: %v", err)
	}
}

func TestAccountService_ForgotPassword_OverwritesPreviousToken(t *testing.T) {
	f := newAccountFixture()
	register(t, f, "alice", "a@x.com", "pw1", "")

	_, _ = f.svc.ForgotPassword(context.Background(), "a@x.com")
	first := userByEmail(t, f, "a@x.com").ResetPasswordToken
	_, _ = f.svc.ForgotPassword(context.Background(), "a@x.com")
	second := userByEmail(t, f, "a@x.com").ResetPasswordToken

	if first == second {
		t.Fatalf("expected a fresh token on each request")
	}
	if _, err := f.svc.ResetPassword(context.Background(), first, "x"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("superseded token should be rejected, got %v", err)
	}
}

func TestAccountService_ResetPassword_Validation(t *testing.T) {
	f := newAccountFixture()
	if _, err := f.svc.ResetPassword(context.Background(), "", "pw"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.ResetPassword(context.Background(), "tok", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAccountService_ResponseMessages(t *testing.T) {
	f := newAccountFixture()

	res := register(t, f, "alice", "a@x.com", "pw1", "")
	if res.Message != "User registered successfully" {
		t.Fatalf("unexpected register message %q", res.Message)
	}

	msg, err := f.svc.ForgotPassword(context.Background(), "a@x.com")
	if err != nil || msg != "Password reset email sent!" {
		t.Fatalf("unexpected forgot result %q, %v", msg, err)
	}

	token := userByEmail(t, f, "a@x.com").ResetPasswordToken
	msg, err = f.svc.ResetPassword(context.Background(), token, "newpw")
	if err != nil || msg != "Password reset successful!" {
		t.Fatalf("unexpected reset result %q, %v", msg, err)
	}
}
