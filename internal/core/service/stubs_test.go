package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/AkshadGawde/linktree-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory store shared by the user and referral stubs
// ---------------------------------------------------------------------------

type memStore struct {
	mu        sync.Mutex
	seq       int
	users     map[string]*domain.User
	referrals []*domain.Referral

	createErr    error // returned by user Create when set
	referralErr  error // returned by referral Create when set
	incrementErr error // returned by IncrementReferrals when set
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*domain.User)}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%04d", prefix, m.seq)
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.ResetPasswordExpires != nil {
		exp := *u.ResetPasswordExpires
		clone.ResetPasswordExpires = &exp
	}
	return &clone
}

type stubUserRepo struct{ *memStore }

func (r stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username || u.ReferralCode == user.ReferralCode {
			return nil, domain.ErrDuplicateAccount
		}
	}
	c := cloneUser(user)
	c.ID = r.nextID("u")
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r stubUserRepo) FindByReferralCode(_ context.Context, code string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ReferralCode == code })
}

func (r stubUserRepo) FindByResetToken(_ context.Context, token string, now time.Time) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.HasActiveResetToken(token, now) })
}

func (r stubUserRepo) SetResetToken(_ context.Context, id, token string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetPasswordToken = token
	u.ResetPasswordExpires = &expires
	return nil
}

func (r stubUserRepo) ResetPassword(_ context.Context, id, token, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.ResetPasswordToken != token {
		return domain.ErrInvalidResetToken
	}
	u.PasswordHash = hash
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = nil
	return nil
}

func (r stubUserRepo) IncrementReferrals(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrementErr != nil {
		return r.incrementErr
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.TotalReferrals++
	return nil
}

type stubReferralRepo struct{ *memStore }

func (r stubReferralRepo) Create(_ context.Context, ref *domain.Referral) (*domain.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.referralErr != nil {
		return nil, r.referralErr
	}
	c := *ref
	c.ID = r.nextID("r")
	r.referrals = append(r.referrals, &c)
	out := c
	return &out, nil
}

func (r stubReferralRepo) ListByReferrer(_ context.Context, referrerID string) ([]domain.ReferralDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ReferralDetail
	for _, ref := range r.referrals {
		if ref.ReferrerID != referrerID {
			continue
		}
		d := domain.ReferralDetail{Referral: *ref}
		if u, ok := r.users[ref.ReferredUserID]; ok {
			d.ReferredUser = &domain.ReferredUser{Username: u.Username, Email: u.Email}
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateReferred.Before(out[j].DateReferred) })
	return out, nil
}

func (r stubReferralRepo) CountByStatus(_ context.Context, referrerID string) (map[domain.ReferralStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.ReferralStatus]int64)
	for _, ref := range r.referrals {
		if ref.ReferrerID == referrerID {
			counts[ref.Status]++
		}
	}
	return counts, nil
}

// stubTx runs fn directly and records how many units of work were opened.
type stubTx struct {
	calls int
}

func (t *stubTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type sentMail struct {
	to, subject, body string
}

type stubMailer struct {
	sent []sentMail
	err  error
}

func (m *stubMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type stubThrottle struct {
	allow    bool
	err      error
	seen     []string
	released []string
}

func (t *stubThrottle) Allow(_ context.Context, email string) (bool, error) {
	t.seen = append(t.seen, email)
	return t.allow, t.err
}

func (t *stubThrottle) Release(_ context.Context, email string) error {
	t.released = append(t.released, email)
	return nil
}

// windowThrottle models a real cooldown: a claimed email stays blocked until
// released.
type windowThrottle struct {
	held map[string]bool
}

func newWindowThrottle() *windowThrottle {
	return &windowThrottle{held: make(map[string]bool)}
}

func (t *windowThrottle) Allow(_ context.Context, email string) (bool, error) {
	if t.held[email] {
		return false, nil
	}
	t.held[email] = true
	return true, nil
}

func (t *windowThrottle) Release(_ context.Context, email string) error {
	delete(t.held, email)
	return nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type accountFixture struct {
	store  *memStore
	tx     *stubTx
	mailer *stubMailer
	tokens *JWTSigner
	svc    *AccountService
	clock  time.Time
}

func newAccountFixture() *accountFixture {
	f := &accountFixture{
		store:  newMemStore(),
		tx:     &stubTx{},
		mailer: &stubMailer{},
		tokens: NewJWTSigner("test-secret", DefaultSessionTTL),
		clock:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAccountService(AccountDeps{
		Users:     stubUserRepo{f.store},
		Referrals: stubReferralRepo{f.store},
		Tx:        f.tx,
		Hasher:    NewBcryptHasher(bcrypt.MinCost),
		Tokens:    f.tokens,
		Mailer:    f.mailer,
	}, AccountOptions{ResetURL: "http://localhost:3000/"}, zerolog.Nop())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *accountFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}
