package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"dentalsupply/internal/cache"
)

const (
	otpKeyPrefix         = "otp:"
	otpAttemptsKeyPrefix = "otp_attempts:"
	otpDigits            = 6
	// MaxOTPAttempts is how many wrong codes are accepted before the code is burned.
	MaxOTPAttempts = 5
)

var (
	// ErrOTPInvalid is returned for a wrong, expired or missing code.
	ErrOTPInvalid = errors.New("invalid or expired verification code")
	// ErrOTPLocked is returned once too many wrong codes were submitted.
	ErrOTPLocked = errors.New("too many attempts, request a new code")
)

// OTPStoreInterface defines one-time code storage for email verification.
type OTPStoreInterface interface {
	Issue(ctx context.Context, email string) (code string, err error)
	Verify(ctx context.Context, email, code string) error
}

// OTPStore keeps a SHA-256 digest of the current code per email in Redis.
type OTPStore struct {
	cache *cache.Client
	ttl   time.Duration
}

var _ OTPStoreInterface = (*OTPStore)(nil)

// NewOTPStore creates a new OTP store whose codes live for ttl.
func NewOTPStore(cache *cache.Client, ttl time.Duration) *OTPStore {
	return &OTPStore{cache: cache, ttl: ttl}
}

// Issue generates a fresh code for email, replacing any previous one.
func (s *OTPStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateOTP()
	if err != nil {
		return "", err
	}
	email = strings.ToLower(email)
	if err := s.cache.Set(ctx, otpKeyPrefix+email, []byte(digest(code)), s.ttl); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	_ = s.cache.Delete(ctx, otpAttemptsKeyPrefix+email)
	return code, nil
}

// Verify checks code against the stored digest and burns it on success.
func (s *OTPStore) Verify(ctx context.Context, email, code string) error {
	email = strings.ToLower(email)
	stored, _ := s.cache.Get(ctx, otpKeyPrefix+email)
	if stored == nil {
		return ErrOTPInvalid
	}

	attempts, err := s.cache.Incr(ctx, otpAttemptsKeyPrefix+email, s.ttl)
	if err == nil && attempts > MaxOTPAttempts {
		_ = s.cache.Delete(ctx, otpKeyPrefix+email)
		return ErrOTPLocked
	}

	if subtle.ConstantTimeCompare(stored, []byte(digest(code))) != 1 {
		return ErrOTPInvalid
	}
	_ = s.cache.Delete(ctx, otpKeyPrefix+email, otpAttemptsKeyPrefix+email)
	return nil
}

func digest(code string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(sum[:])
}

func generateOTP() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
