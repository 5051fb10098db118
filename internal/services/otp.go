package services

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"foodorder/internal/apperrors"
)

// DefaultOTPTTL is how long an issued code stays valid.
const DefaultOTPTTL = 10 * time.Minute

var otpSpan = big.NewInt(900000)

// IssueOTP returns a 6 digit code drawn uniformly from [100000, 999999].
func IssueOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ConsumeOTP checks supplied against the stored code. It succeeds only when
// both match and now is before the expiry. Clearing the stored code is left
// to the caller.
func ConsumeOTP(stored *string, storedExpiry *time.Time, supplied string, now time.Time) error {
	if stored == nil || storedExpiry == nil || *stored == "" || supplied == "" {
		return apperrors.ErrOTPInvalidOrExpired
	}
	if subtle.ConstantTimeCompare([]byte(*stored), []byte(supplied)) != 1 {
		return apperrors.ErrOTPInvalidOrExpired
	}
	if !now.Before(*storedExpiry) {
		return apperrors.ErrOTPInvalidOrExpired
	}
	return nil
}
