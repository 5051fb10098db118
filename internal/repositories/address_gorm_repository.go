package repositories

import (
	"context"
	"fmt"

	"foodorder/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMAddressRepository is a GORM implementation of AddressRepository.
type GORMAddressRepository struct {
	db *gorm.DB
}

// NewGORMAddressRepository creates a new instance of GORMAddressRepository.
func NewGORMAddressRepository(db *gorm.DB) *GORMAddressRepository {
	return &GORMAddressRepository{db: db}
}

func (r *GORMAddressRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.CustomerAddress, error) {
	var addresses []models.CustomerAddress
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("created_at ASC").Find(&addresses).Error
	if err != nil {
		return nil, translate(err, "failed to list addresses of customer %s", customerID)
	}
	return addresses, nil
}

func (r *GORMAddressRepository) Create(ctx context.Context, address *models.CustomerAddress) error {
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return translate(err, "failed to create address for customer %s", address.CustomerID)
	}
	return nil
}

func (r *GORMAddressRepository) FindIncludingDeleted(ctx context.Context, customerID, id string) (*models.CustomerAddress, error) {
	var address models.CustomerAddress
	err := r.db.WithContext(ctx).Unscoped().
		First(&address, "id = ? AND customer_id = ?", id, customerID).Error
	if err != nil {
		return nil, translate(err, "failed to get address %s", id)
	}
	return &address, nil
}

func (r *GORMAddressRepository) Delete(ctx context.Context, customerID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", id, customerID).
		Delete(&models.CustomerAddress{})
	if res.Error != nil {
		return translate(res.Error, "failed to delete address %s", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("address %s not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}
