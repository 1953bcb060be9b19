package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"anoa.com/facultydir/internal/entity"
	"anoa.com/facultydir/internal/middleware"
	"anoa.com/facultydir/internal/modules/user/dto"
	"anoa.com/facultydir/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users  map[uint]*entity.User
	tokens []*entity.EmailToken
	nextID uint
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]*entity.User), nextID: 1}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = r.nextID
		}
		r.users[u.ID] = u
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	if profile != nil {
		profile.UserID = user.ID
	}
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByRole(ctx context.Context, role string) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uint) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CreateToken(ctx context.Context, token *entity.EmailToken) error {
	token.ID = uint(len(r.tokens) + 1)
	token.CreatedAt = time.Now()
	r.tokens = append(r.tokens, token)
	return nil
}

func (r *fakeUserRepo) FindToken(ctx context.Context, value, purpose string) (*entity.EmailToken, error) {
	for _, tk := range r.tokens {
		if tk.Token == value && tk.Purpose == purpose {
			return tk, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindLatestToken(ctx context.Context, userID uint, purpose string) (*entity.EmailToken, error) {
	for i := len(r.tokens) - 1; i >= 0; i-- {
		if r.tokens[i].UserID == userID && r.tokens[i].Purpose == purpose {
			return r.tokens[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) MarkTokenUsed(ctx context.Context, id uint, at time.Time) error {
	for _, tk := range r.tokens {
		if tk.ID == id {
			tk.UsedAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) DeleteTokens(ctx context.Context, userID uint, purpose string) error {
	kept := r.tokens[:0]
	for _, tk := range r.tokens {
		if tk.UserID != userID || tk.Purpose != purpose {
			kept = append(kept, tk)
		}
	}
	r.tokens = kept
	return nil
}

func (r *fakeUserRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	kept := r.tokens[:0]
	for _, tk := range r.tokens {
		if !tk.Expired(now) {
			kept = append(kept, tk)
		}
	}
	r.tokens = kept
	return nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAuthService(repo *fakeUserRepo) *authService {
	return &authService{
		repo:     repo,
		secret:   "test-secret",
		tokenTTL: time.Hour,
		now:      func() time.Time { return testNow },
	}
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return string(h)
}

func TestRegisterCreatesUnverifiedStaffWithOTP(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	res, err := svc.Register(context.Background(), dto.RegisterInput{
		Name:     "New Hire",
		Email:    "new@faculty.local",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if res.User.Role != entity.RoleStaff {
		t.Errorf("role = %s, want STAFF", res.User.Role)
	}
	if res.User.EmailVerified {
		t.Error("self-registered accounts must start unverified")
	}

	tk, err := repo.FindLatestToken(context.Background(), res.User.ID, entity.TokenPurposeVerifyEmail)
	if err != nil {
		t.Fatalf("no verification token issued: %v", err)
	}
	if len(tk.OTP) != 6 {
		t.Errorf("OTP = %q, want 6 digits", tk.OTP)
	}
	if !tk.ExpiresAt.Equal(testNow.Add(24 * time.Hour)) {
		t.Errorf("verification expiry = %v", tk.ExpiresAt)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo(&entity.User{ID: 1, Email: "taken@faculty.local"})
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), dto.RegisterInput{
		Name:     "Dup",
		Email:    "taken@faculty.local",
		Password: "password123",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := newFakeUserRepo(&entity.User{
		ID:            1,
		Email:         "a@faculty.local",
		PasswordHash:  hashOf(t, "correct-horse"),
		EmailVerified: true,
	})
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), dto.LoginInput{Email: "a@faculty.local", Password: "wrong"})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLoginRejectsUnknownEmailWithSameError(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.Login(context.Background(), dto.LoginInput{Email: "ghost@faculty.local", Password: "x"})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLoginRejectsUnverifiedEmail(t *testing.T) {
	repo := newFakeUserRepo(&entity.User{
		ID:           1,
		Email:        "a@faculty.local",
		PasswordHash: hashOf(t, "correct-horse"),
	})
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), dto.LoginInput{Email: "a@faculty.local", Password: "correct-horse"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	repo := newFakeUserRepo(&entity.User{
		ID:            7,
		Email:         "a@faculty.local",
		PasswordHash:  hashOf(t, "correct-horse"),
		Role:          entity.RoleManager,
		EmailVerified: true,
	})
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), dto.LoginInput{Email: "a@faculty.local", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.TokenType != "Bearer" || res.ExpiresIn != 3600 {
		t.Errorf("unexpected token metadata: %+v", res)
	}
	if res.User.PasswordHash != "" {
		t.Error("password hash must not leak in responses")
	}

	claims := &middleware.Claims{}
	parsed, err := jwt.ParseWithClaims(res.AccessToken, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return testNow }))
	if err != nil || !parsed.Valid {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Subject != strconv.FormatUint(7, 10) {
		t.Errorf("subject = %s, want 7", claims.Subject)
	}
	if claims.Role != entity.RoleManager {
		t.Errorf("role claim = %s, want MANAGER", claims.Role)
	}
	if !claims.ExpiresAt.Time.Equal(testNow.Add(time.Hour)) {
		t.Errorf("token expiry = %v", claims.ExpiresAt.Time)
	}
}

func TestVerifyEmailHappyPath(t *testing.T) {
	repo := newFakeUserRepo(&entity.User{ID: 1, Email: "a@faculty.local"})
	svc := newTestAuthService(repo)
	repo.CreateToken(context.Background(), &entity.EmailToken{
		UserID:    1,
		Token:     "tok-1",
		OTP:       "123456",
		Purpose:   entity.TokenPurposeVerifyEmail,
		ExpiresAt: testNow.Add(time.Hour),
	})

	err := svc.VerifyEmail(context.Background(), dto.VerifyEmailInput{Email: "a@faculty.local", OTP: "123456"})
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	u, _ := repo.FindByID(context.Background(), 1)
	if !u.EmailVerified {
		t.Error("user should be verified")
	}
	tk, _ := repo.FindLatestToken(context.Background(), 1, entity.TokenPurposeVerifyEmail)
	if !tk.Used() {
		t.Error("token should be consumed")
	}
}

func TestVerifyEmailWrongOTP(t *testing.T) {
	repo := newFakeUserRepo(&entity.User{ID: 1, Email: "a@faculty.local"})
	svc := newTestAuthService(repo)
	repo.CreateToken(context.Background(), &entity.EmailToken{
		UserID:    1,
		Token:     "tok-1",
		OTP:       "123456",
		Purpose:   entity.TokenPurposeVerifyEmail,
		ExpiresAt: testNow.Add(time.Hour),
	})

	err := svc.VerifyEmail(context.Background(), dto.VerifyEmailInput{Email: "a@faculty.local", OTP: "654321"})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestVerifyEmailExpiredOTP(t *testing.T) {
	repo := newFakeUserRepo(&entity.User{ID: 1, Email: "a@faculty.local"})
	svc := newTestAuthService(repo)
	repo.CreateToken(context.Background(), &entity.EmailToken{
		UserID:    1,
		Token:     "tok-1",
		OTP:       "123456",
		Purpose:   entity.TokenPurposeVerifyEmail,
		ExpiresAt: testNow.Add(-time.Minute),
	})

	err := svc.VerifyEmail(context.Background(), dto.VerifyEmailInput{Email: "a@faculty.local", OTP: "123456"})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for expired OTP, got %v", err)
	}
}

func TestVerifyEmailAlreadyVerifiedIsNoop(t *testing.T) {
	repo := newFakeUserRepo(&entity.User{ID: 1, Email: "a@faculty.local", EmailVerified: true})
	svc := newTestAuthService(repo)

	if err := svc.VerifyEmail(context.Background(), dto.VerifyEmailInput{Email: "a@faculty.local", OTP: "000000"}); err != nil {
		t.Fatalf("verifying an already-verified account should succeed, got %v", err)
	}
}

func TestForgotPasswordUnknownEmailStaysSilent(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	if err := svc.ForgotPassword(context.Background(), "ghost@faculty.local"); err != nil {
		t.Fatalf("unknown addresses must not be revealed, got %v", err)
	}
	if len(repo.tokens) != 0 {
		t.Error("no token should be issued for unknown addresses")
	}
}

func TestForgotPasswordIssuesHourlyToken(t *testing.T) {
	repo := newFakeUserRepo(&entity.User{ID: 1, Email: "a@faculty.local"})
	svc := newTestAuthService(repo)

	if err := svc.ForgotPassword(context.Background(), "a@faculty.local"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	tk, err := repo.FindLatestToken(context.Background(), 1, entity.TokenPurposePasswordReset)
	if err != nil {
		t.Fatalf("no reset token issued: %v", err)
	}
	if !tk.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Errorf("reset expiry = %v, want +1h", tk.ExpiresAt)
	}
}

func TestResetPasswordIsSingleUse(t *testing.T) {
	repo := newFakeUserRepo(&entity.User{ID: 1, Email: "a@faculty.local", PasswordHash: hashOf(t, "old-password")})
	svc := newTestAuthService(repo)
	repo.CreateToken(context.Background(), &entity.EmailToken{
		UserID:    1,
		Token:     "reset-1",
		Purpose:   entity.TokenPurposePasswordReset,
		ExpiresAt: testNow.Add(time.Hour),
	})

	input := dto.ResetPasswordInput{Token: "reset-1", NewPassword: "new-password"}
	if err := svc.ResetPassword(context.Background(), input); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	u, _ := repo.FindByID(context.Background(), 1)
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("new-password")); err != nil {
		t.Error("password was not updated")
	}

	if err := svc.ResetPassword(context.Background(), input); !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("second use must fail, got %v", err)
	}
}

func TestCleanupExpiredTokens(t *testing.T) {
	repo := newFakeUserRepo(&entity.User{ID: 1, Email: "a@faculty.local"})
	svc := newTestAuthService(repo)
	repo.CreateToken(context.Background(), &entity.EmailToken{
		UserID: 1, Token: "old", Purpose: entity.TokenPurposeVerifyEmail, ExpiresAt: testNow.Add(-time.Hour),
	})
	repo.CreateToken(context.Background(), &entity.EmailToken{
		UserID: 1, Token: "fresh", Purpose: entity.TokenPurposeVerifyEmail, ExpiresAt: testNow.Add(time.Hour),
	})

	if err := svc.CleanupExpiredTokens(context.Background()); err != nil {
		t.Fatalf("CleanupExpiredTokens failed: %v", err)
	}
	if len(repo.tokens) != 1 || repo.tokens[0].Token != "fresh" {
		t.Errorf("only the fresh token should remain, got %d", len(repo.tokens))
	}
}

func TestGenerateOTPShape(t *testing.T) {
	for i := 0; i < 20; i++ {
		otp, err := generateOTP()
		if err != nil {
			t.Fatalf("generateOTP failed: %v", err)
		}
		if len(otp) != 6 {
			t.Fatalf("OTP %q is not 6 characters", otp)
		}
		for _, r := range otp {
			if r < '0' || r > '9' {
				t.Fatalf("OTP %q contains non-digit", otp)
			}
		}
	}
}
