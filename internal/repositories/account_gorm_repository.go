package repositories

import (
	"context"
	"fmt"
	"time"

	"foodorder/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMAccountRepository is a GORM implementation of AccountRepository.
type GORMAccountRepository struct {
	db *gorm.DB
}

// NewGORMAccountRepository creates a new instance of GORMAccountRepository.
func NewGORMAccountRepository(db *gorm.DB) *GORMAccountRepository {
	return &GORMAccountRepository{db: db}
}

// Create creates a new account in the database.
func (r *GORMAccountRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err, "failed to create account %s", user.Email)
	}
	return nil
}

// GetByEmail retrieves an account by its email from the database.
func (r *GORMAccountRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err, "failed to get account by email %s", email)
	}
	return &user, nil
}

// GetByID retrieves an account by its ID from the database.
func (r *GORMAccountRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to get account by ID %s", id)
	}
	return &user, nil
}

func (r *GORMAccountRepository) SetOTP(ctx context.Context, id string, purpose models.OTPPurpose, code string, expiry time.Time) error {
	codeCol, expiryCol := models.OTPColumns(purpose)
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{codeCol: code, expiryCol: expiry})
	if res.Error != nil {
		return translate(res.Error, "failed to store %s otp for account %s", purpose, id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account with ID %s not found: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMAccountRepository) ConsumeOTP(ctx context.Context, id string, purpose models.OTPPurpose, code string, changes map[string]interface{}) error {
	codeCol, expiryCol := models.OTPColumns(purpose)
	updates := map[string]interface{}{codeCol: nil, expiryCol: nil}
	for k, v := range changes {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND "+codeCol+" = ?", id, code).
		Updates(updates)
	if res.Error != nil {
		return translate(res.Error, "failed to consume %s otp for account %s", purpose, id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("otp of account %s already consumed: %w", id, ErrStaleWrite)
	}
	return nil
}

func (r *GORMAccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return translate(res.Error, "failed to update password of account %s", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account with ID %s not found for update: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMAccountRepository) UpdateProfile(ctx context.Context, id string, changes map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return translate(res.Error, "failed to update profile of account %s", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account with ID %s not found for update: %w", id, ErrNotFound)
	}
	return nil
}
