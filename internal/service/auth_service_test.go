package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dentalsupply/internal/auth"
	apperrors "dentalsupply/internal/errors"
	"dentalsupply/internal/mailer"
	"dentalsupply/internal/model"
)

type authFixture struct {
	users  *MockUserRepository
	tokens *MockTokenStore
	otps   *MockOTPStore
	mail   *MockMailer
	jwt    *auth.JWTService
	svc    AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:  new(MockUserRepository),
		tokens: new(MockTokenStore),
		otps:   new(MockOTPStore),
		mail:   new(MockMailer),
		jwt:    auth.NewJWTService("test-secret"),
	}
	f.svc = NewAuthService(f.users, f.jwt, f.tokens, f.otps, 10*time.Minute, bcrypt.MinCost, newTestNotifier(f.mail, nil), nil, zap.NewNop())
	return f
}

func (f *authFixture) assertExpectations(t *testing.T) {
	f.users.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
	f.otps.AssertExpectations(t)
	f.mail.AssertExpectations(t)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name          string
		input         SignupInput
		setupMock     func(*authFixture)
		expectedError error
		codeSent      bool
	}{
		{
			name:  "successful signup",
			input: SignupInput{Name: "Dr. Lee", Email: "Lee@Example.com", Password: "password123"},
			setupMock: func(f *authFixture) {
				f.users.On("FindByEmail", mock.Anything, "lee@example.com").Return(nil, gorm.ErrRecordNotFound)
				f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.Email == "lee@example.com" && !u.IsVerified && !u.IsGuestCreated && !u.MustChangePassword
				})).Return(nil)
				f.otps.On("Issue", mock.Anything, "lee@example.com").Return("123456", nil)
				f.mail.On("Send", mock.Anything, mock.MatchedBy(func(msg mailer.Message) bool {
					return msg.To == "lee@example.com"
				})).Return(nil)
			},
			codeSent: true,
		},
		{
			name:  "user already exists",
			input: SignupInput{Name: "Dr. Lee", Email: "lee@example.com", Password: "password123"},
			setupMock: func(f *authFixture) {
				f.users.On("FindByEmail", mock.Anything, "lee@example.com").Return(&model.User{Email: "lee@example.com"}, nil)
			},
			expectedError: ErrUserAlreadyExists,
		},
		{
			name:  "lost race on unique email",
			input: SignupInput{Name: "Dr. Lee", Email: "lee@example.com", Password: "password123"},
			setupMock: func(f *authFixture) {
				f.users.On("FindByEmail", mock.Anything, "lee@example.com").Return(nil, gorm.ErrRecordNotFound)
				f.users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: ErrUserAlreadyExists,
		},
		{
			name:          "short password",
			input:         SignupInput{Name: "Dr. Lee", Email: "lee@example.com", Password: "short"},
			setupMock:     func(f *authFixture) {},
			expectedError: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			tt.setupMock(f)

			user, codeSent, err := f.svc.Signup(context.Background(), tt.input)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "lee@example.com", user.Email)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)))
			}
			assert.Equal(t, tt.codeSent, codeSent)
			f.assertExpectations(t)
		})
	}
}

func TestAuthService_VerifyOTP(t *testing.T) {
	user := func() *model.User {
		return &model.User{ID: uuid.New(), Email: "lee@example.com"}
	}

	tests := []struct {
		name          string
		setupMock     func(*authFixture)
		expectedError error
	}{
		{
			name: "valid code",
			setupMock: func(f *authFixture) {
				f.users.On("FindByEmail", mock.Anything, "lee@example.com").Return(user(), nil)
				f.otps.On("Verify", mock.Anything, "lee@example.com", "123456").Return(nil)
				f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool { return u.IsVerified })).Return(nil)
			},
		},
		{
			name: "wrong code",
			setupMock: func(f *authFixture) {
				f.users.On("FindByEmail", mock.Anything, "lee@example.com").Return(user(), nil)
				f.otps.On("Verify", mock.Anything, "lee@example.com", "123456").Return(auth.ErrOTPInvalid)
			},
			expectedError: apperrors.ErrValidation,
		},
		{
			name: "unknown email",
			setupMock: func(f *authFixture) {
				f.users.On("FindByEmail", mock.Anything, "lee@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			tt.setupMock(f)

			err := f.svc.VerifyOTP(context.Background(), "lee@example.com", "123456")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			f.assertExpectations(t)
		})
	}
}

func TestAuthService_ResendOTP_AlreadyVerified(t *testing.T) {
	f := newAuthFixture()
	f.users.On("FindByEmail", mock.Anything, "lee@example.com").Return(&model.User{Email: "lee@example.com", IsVerified: true}, nil)

	sent, err := f.svc.ResendOTP(context.Background(), "lee@example.com")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.False(t, sent)
	f.assertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name           string
		email          string
		password       string
		setupMock      func(*testing.T, *authFixture)
		expectedError  error
		mustChangePass bool
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(t *testing.T, f *authFixture) {
				id := uuid.New()
				f.users.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					ID:           id,
					Email:        "test@example.com",
					PasswordHash: hashed(t, "password123"),
					IsVerified:   true,
				}, nil)
				f.tokens.On("StoreRefreshToken", mock.Anything, mock.Anything, id, "test@example.com", auth.RefreshTokenExpiry).Return(nil)
			},
		},
		{
			name:     "guest-created account signs in with emailed password",
			email:    "guest@example.com",
			password: generatedPassword,
			setupMock: func(t *testing.T, f *authFixture) {
				id := uuid.New()
				f.users.On("FindByEmail", mock.Anything, "guest@example.com").Return(&model.User{
					ID:                 id,
					Email:              "guest@example.com",
					PasswordHash:       hashed(t, generatedPassword),
					IsGuestCreated:     true,
					MustChangePassword: true,
				}, nil)
				f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool { return u.IsVerified })).Return(nil)
				f.tokens.On("StoreRefreshToken", mock.Anything, mock.Anything, id, "guest@example.com", auth.RefreshTokenExpiry).Return(nil)
			},
			mustChangePass: true,
		},
		{
			name:     "unverified self-registered account",
			email:    "new@example.com",
			password: "password123",
			setupMock: func(t *testing.T, f *authFixture) {
				f.users.On("FindByEmail", mock.Anything, "new@example.com").Return(&model.User{
					ID:           uuid.New(),
					Email:        "new@example.com",
					PasswordHash: hashed(t, "password123"),
				}, nil)
			},
			expectedError: ErrNotVerified,
		},
		{
			name:     "invalid credentials - user not found",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(t *testing.T, f *authFixture) {
				f.users.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "invalid credentials - wrong password",
			email:    "test@example.com",
			password: "wrong-password",
			setupMock: func(t *testing.T, f *authFixture) {
				f.users.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					ID:           uuid.New(),
					PasswordHash: hashed(t, "password123"),
					IsVerified:   true,
				}, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			tt.setupMock(t, f)

			res, err := f.svc.Login(context.Background(), tt.email, tt.password)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, res.AccessToken)
				assert.NotEmpty(t, res.RefreshToken)
				assert.Equal(t, tt.email, res.User.Email)
				assert.Equal(t, tt.mustChangePass, res.MustChangePassword)

				claims, err := f.jwt.ValidateToken(res.AccessToken)
				require.NoError(t, err)
				assert.Equal(t, res.User.ID, claims.UserID)
			}
			f.assertExpectations(t)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	f := newAuthFixture()
	user := &model.User{ID: uuid.New(), Email: "admin@example.com", IsAdmin: true}
	tokenID, refresh, err := f.jwt.GenerateRefreshToken(user.ID, user.Email, false)
	require.NoError(t, err)

	f.tokens.On("GetRefreshToken", mock.Anything, tokenID).Return(user.ID, user.Email, nil)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	access, err := f.svc.RefreshToken(context.Background(), refresh)
	require.NoError(t, err)

	claims, err := f.jwt.ValidateToken(access)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin, "admin flag comes from the stored user")
	f.assertExpectations(t)

	_, err = f.svc.RefreshToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture()
	tokenID, refresh, err := f.jwt.GenerateRefreshToken(uuid.New(), "lee@example.com", false)
	require.NoError(t, err)
	f.tokens.On("DeleteRefreshToken", mock.Anything, tokenID).Return(nil)

	assert.NoError(t, f.svc.Logout(context.Background(), refresh))
	assert.ErrorIs(t, f.svc.Logout(context.Background(), "garbage"), ErrInvalidRefreshToken)
	f.assertExpectations(t)
}

func TestAuthService_ChangePassword(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name          string
		current       string
		next          string
		setupMock     func(*testing.T, *authFixture)
		expectedError error
	}{
		{
			name:    "clears the must-change flag",
			current: generatedPassword,
			next:    "a-new-password",
			setupMock: func(t *testing.T, f *authFixture) {
				f.users.On("FindByID", mock.Anything, id).Return(&model.User{
					ID: id, PasswordHash: hashed(t, generatedPassword), IsGuestCreated: true, MustChangePassword: true,
				}, nil)
				f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return !u.MustChangePassword && u.PasswordChangedAt != nil &&
						bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("a-new-password")) == nil
				})).Return(nil)
			},
		},
		{
			name:    "wrong current password",
			current: "guess",
			next:    "a-new-password",
			setupMock: func(t *testing.T, f *authFixture) {
				f.users.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, PasswordHash: hashed(t, generatedPassword)}, nil)
			},
			expectedError: apperrors.ErrValidation,
		},
		{
			name:    "new password too short",
			current: generatedPassword,
			next:    "short",
			setupMock: func(t *testing.T, f *authFixture) {
				f.users.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, PasswordHash: hashed(t, generatedPassword)}, nil)
			},
			expectedError: apperrors.ErrValidation,
		},
		{
			name:    "unknown user",
			current: generatedPassword,
			next:    "a-new-password",
			setupMock: func(t *testing.T, f *authFixture) {
				f.users.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			tt.setupMock(t, f)

			err := f.svc.ChangePassword(context.Background(), id, tt.current, tt.next)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			f.assertExpectations(t)
		})
	}
}
