package repositories

import (
	"context"

	"foodorder/internal/models"
)

// AddressRepository defines the interface for saved address data access.
type AddressRepository interface {
	ListByCustomer(ctx context.Context, customerID string) ([]models.CustomerAddress, error)
	Create(ctx context.Context, address *models.CustomerAddress) error
	// FindIncludingDeleted also returns soft deleted addresses.
	FindIncludingDeleted(ctx context.Context, customerID, id string) (*models.CustomerAddress, error)
	Delete(ctx context.Context, customerID, id string) error
}
