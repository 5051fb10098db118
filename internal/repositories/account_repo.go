package repositories

import (
	"context"
	"time"

	"foodorder/internal/models"
)

// AccountRepository defines the interface for account data access.
type AccountRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// SetOTP stores a fresh code and expiry in the slot of purpose.
	SetOTP(ctx context.Context, id string, purpose models.OTPPurpose, code string, expiry time.Time) error
	// ConsumeOTP clears the slot of purpose and applies changes, but only
	// while the slot still holds code. Returns ErrStaleWrite otherwise.
	ConsumeOTP(ctx context.Context, id string, purpose models.OTPPurpose, code string, changes map[string]interface{}) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// UpdateProfile applies column changes to the profile fields of an account.
	UpdateProfile(ctx context.Context, id string, changes map[string]interface{}) error
}
