package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"

	"anoa.com/facultydir/internal/entity"
	"anoa.com/facultydir/internal/mailer"
	"anoa.com/facultydir/internal/middleware"
	search "anoa.com/facultydir/internal/modules/search/service"
	"anoa.com/facultydir/internal/modules/user/dto"
	"anoa.com/facultydir/internal/modules/user/repository"
	"anoa.com/facultydir/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	verificationTTL  = 24 * time.Hour
	passwordResetTTL = time.Hour
	emailWindow      = time.Minute
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.UserResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Me(ctx context.Context, userID uint) (*dto.UserResponse, error)
	VerifyEmail(ctx context.Context, input dto.VerifyEmailInput) error
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input dto.ResetPasswordInput) error
	// CleanupExpiredTokens removes verification and reset tokens past expiry.
	CleanupExpiredTokens(ctx context.Context) error
}

type authService struct {
	repo        repository.UserRepository
	sender      *mailer.Sender
	search      search.SearchService
	redisClient *redis.Client
	secret      string
	tokenTTL    time.Duration
	now         func() time.Time
}

func NewAuthService(repo repository.UserRepository, sender *mailer.Sender, searchSvc search.SearchService, redisClient *redis.Client) AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	ttl := time.Hour
	if ttlStr := os.Getenv("JWT_TTL"); ttlStr != "" {
		if d, err := time.ParseDuration(ttlStr); err == nil {
			ttl = d
		}
	}

	return &authService{
		repo:        repo,
		sender:      sender,
		search:      searchSvc,
		redisClient: redisClient,
		secret:      secret,
		tokenTTL:    ttl,
		now:         time.Now,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.UserResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		PhoneNumber:  input.PhoneNumber,
		Role:         entity.RoleStaff,
	}

	profile := &entity.Profile{
		Name: input.Name,
	}
	if input.Department != "" {
		profile.Department = input.Department
	}
	if input.Title != "" {
		profile.Title = input.Title
	}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		return nil, err
	}

	if err := s.issueVerification(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &dto.UserResponse{User: user, Profile: profile}, nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
	}

	if !user.EmailVerified {
		return nil, fmt.Errorf("%w: email not verified", apperror.ErrForbidden)
	}

	return s.buildAuthResponse(user)
}

func (s *authService) Me(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	user.PasswordHash = ""
	return &dto.UserResponse{User: user, Profile: user.Profile}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, input dto.VerifyEmailInput) error {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if user.EmailVerified {
		return nil
	}

	token, err := s.repo.FindLatestToken(ctx, user.ID, entity.TokenPurposeVerifyEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no pending verification", apperror.ErrInvalidInput)
		}
		return err
	}

	if token.Used() || token.Expired(s.now()) || token.OTP != input.OTP {
		return fmt.Errorf("%w: invalid or expired OTP", apperror.ErrInvalidInput)
	}

	if err := s.repo.MarkTokenUsed(ctx, token.ID, s.now()); err != nil {
		return err
	}

	user.EmailVerified = true
	return s.repo.Update(ctx, user)
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if user.EmailVerified {
		return fmt.Errorf("%w: email already verified", apperror.ErrInvalidInput)
	}

	return s.issueVerification(ctx, user)
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the address exists.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	allowed, err := checkAndSetRateLimit(ctx, s.redisClient, strconv.FormatUint(uint64(user.ID), 10), "password_reset", emailWindow)
	if err != nil {
		return err
	}
	if !allowed {
		return apperror.ErrRateLimitExceeded
	}

	if err := s.repo.DeleteTokens(ctx, user.ID, entity.TokenPurposePasswordReset); err != nil {
		return err
	}

	token := &entity.EmailToken{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		Purpose:   entity.TokenPurposePasswordReset,
		ExpiresAt: s.now().Add(passwordResetTTL),
	}

	if err := s.repo.CreateToken(ctx, token); err != nil {
		return err
	}

	if s.sender != nil {
		text := fmt.Sprintf("A password reset was requested for your faculty account.\nReset token: %s\nThe token expires in one hour. Ignore this email if you did not request it.", token.Token)
		s.sender.SendAsync(user.Email, "Password reset", text, "")
	}

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, input dto.ResetPasswordInput) error {
	token, err := s.repo.FindToken(ctx, input.Token, entity.TokenPurposePasswordReset)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: invalid or expired token", apperror.ErrInvalidInput)
		}
		return err
	}

	if token.Used() || token.Expired(s.now()) {
		return fmt.Errorf("%w: invalid or expired token", apperror.ErrInvalidInput)
	}

	user, err := s.repo.FindByID(ctx, token.UserID)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.MarkTokenUsed(ctx, token.ID, s.now()); err != nil {
		return err
	}

	user.PasswordHash = string(hashedPassword)
	return s.repo.Update(ctx, user)
}

func (s *authService) CleanupExpiredTokens(ctx context.Context) error {
	return s.repo.DeleteExpiredTokens(ctx, s.now())
}

func (s *authService) issueVerification(ctx context.Context, user *entity.User) error {
	allowed, err := checkAndSetRateLimit(ctx, s.redisClient, strconv.FormatUint(uint64(user.ID), 10), "verify_email", emailWindow)
	if err != nil {
		return err
	}
	if !allowed {
		return apperror.ErrRateLimitExceeded
	}

	if err := s.repo.DeleteTokens(ctx, user.ID, entity.TokenPurposeVerifyEmail); err != nil {
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}

	token := &entity.EmailToken{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		OTP:       otp,
		Purpose:   entity.TokenPurposeVerifyEmail,
		ExpiresAt: s.now().Add(verificationTTL),
	}

	if err := s.repo.CreateToken(ctx, token); err != nil {
		return err
	}

	if s.sender != nil {
		text := fmt.Sprintf("Your email verification code is %s. It expires in 24 hours.", otp)
		s.sender.SendAsync(user.Email, "Verify your email", text, "")
	}

	return nil
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	now := s.now()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		Email: user.Email,
		Role:  user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	user.PasswordHash = ""

	resp := &dto.AuthResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        user,
		Profile:     user.Profile,
	}

	if s.search != nil {
		if searchToken, err := s.search.GenerateSearchToken(); err == nil {
			resp.SearchToken = searchToken
		}
	}

	return resp, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
