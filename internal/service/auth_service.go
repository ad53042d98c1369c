package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dentalsupply/internal/auth"
	"dentalsupply/internal/cache"
	apperrors "dentalsupply/internal/errors"
	"dentalsupply/internal/model"
	"dentalsupply/internal/repository"
)

// MinPasswordLength applies to passwords chosen by users.
const MinPasswordLength = 8

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = apperrors.Unauthorized("Invalid email or password")
	// ErrUserAlreadyExists is returned when trying to register an existing email.
	ErrUserAlreadyExists = apperrors.Conflict("User already exists")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = apperrors.Unauthorized("Invalid or expired refresh token")
	// ErrNotVerified is returned when a self-registered account logs in before verifying its email.
	ErrNotVerified = apperrors.Forbidden("Please verify your email before logging in")
)

// SignupInput is a self-service registration.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginResult carries the issued tokens. MustChangePassword tells the client
// to force a password change before anything else.
type LoginResult struct {
	AccessToken        string      `json:"access_token"`
	RefreshToken       string      `json:"refresh_token"`
	User               *model.User `json:"user"`
	MustChangePassword bool        `json:"mustChangePassword"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (user *model.User, codeSent bool, err error)
	VerifyOTP(ctx context.Context, email, code string) error
	ResendOTP(ctx context.Context, email string) (codeSent bool, err error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
}

type authService struct {
	users      repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	otpStore   auth.OTPStoreInterface
	otpTTL     time.Duration
	bcryptCost int
	notifier   *Notifier
	cache      *cache.Client
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	otpStore auth.OTPStoreInterface,
	otpTTL time.Duration,
	bcryptCost int,
	notifier *Notifier,
	cache *cache.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		otpStore:   otpStore,
		otpTTL:     otpTTL,
		bcryptCost: bcryptCost,
		notifier:   notifier,
		cache:      cache,
		logger:     logger,
	}
}

// Signup creates an unverified account and emails it a verification code.
func (s *authService) Signup(ctx context.Context, in SignupInput) (*model.User, bool, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, false, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, false, apperrors.Validation("Name is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, false, apperrors.Validation(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, false, ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, ErrUserAlreadyExists
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))

	return user, s.sendCode(ctx, user), nil
}

// VerifyOTP marks the account verified when code matches the last one issued.
func (s *authService) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return nil
	}

	if err := s.otpStore.Verify(ctx, user.Email, code); err != nil {
		if errors.Is(err, auth.ErrOTPInvalid) || errors.Is(err, auth.ErrOTPLocked) {
			return apperrors.Validation(err.Error())
		}
		return fmt.Errorf("verify otp: %w", err)
	}

	user.IsVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(user.ID))
	return nil
}

// ResendOTP issues a fresh code for an account that is not verified yet.
func (s *authService) ResendOTP(ctx context.Context, email string) (bool, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user.IsVerified {
		return false, apperrors.Validation("Account is already verified")
	}
	return s.sendCode(ctx, user), nil
}

// Login authenticates a user and returns access and refresh tokens. Accounts
// created at checkout have no verification code; signing in with the emailed
// password proves the address and verifies them.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		if !user.IsGuestCreated {
			return nil, ErrNotVerified
		}
		user.IsVerified = true
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		_ = s.cache.Delete(ctx, userCacheKey(user.ID))
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Email, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &LoginResult{
		AccessToken:        accessToken,
		RefreshToken:       refreshToken,
		User:               user,
		MustChangePassword: user.MustChangePassword,
	}, nil
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, tokenID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return "", ErrInvalidRefreshToken
	}

	// Reload so a revoked admin flag does not survive in new access tokens.
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates a refresh token.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	return s.tokenStore.DeleteRefreshToken(ctx, tokenID)
}

// ChangePassword replaces the password after checking the current one and
// clears the must-change flag set on accounts created at checkout.
func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperrors.Validation("Current password is incorrect")
	}
	if len(next) < MinPasswordLength {
		return apperrors.Validation(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if next == current {
		return apperrors.Validation("New password must differ from the current one")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user.PasswordHash = string(hashedPassword)
	user.MustChangePassword = false
	user.PasswordChangedAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(user.ID))
	s.logger.Info("password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) findByEmail(ctx context.Context, raw string) (*model.User, error) {
	email, err := normalizeEmail(raw)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *authService) sendCode(ctx context.Context, user *model.User) bool {
	code, err := s.otpStore.Issue(ctx, user.Email)
	if err != nil {
		s.logger.Warn("issue otp", zap.String("user_id", user.ID.String()), zap.Error(err))
		return false
	}
	return s.notifier.Verification(ctx, user, code, s.otpTTL)
}
