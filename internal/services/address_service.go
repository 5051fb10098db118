package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodorder/internal/apperrors"
	"foodorder/internal/models"
	"foodorder/internal/repositories"
)

// AddressService manages the saved delivery addresses of a customer.
type AddressService struct {
	store   repositories.Store
	timeout time.Duration
}

// NewAddressService creates a new AddressService.
func NewAddressService(store repositories.Store, timeout time.Duration) *AddressService {
	return &AddressService{store: store, timeout: timeout}
}

func (s *AddressService) ListAddresses(ctx context.Context, p Principal) ([]models.CustomerAddress, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	addresses, err := s.store.Addresses().ListByCustomer(sctx, p.ID)
	if err != nil {
		return nil, apperrors.Dependency("list addresses", err)
	}
	return addresses, nil
}

func (s *AddressService) AddAddress(ctx context.Context, p Principal, name, address string) (*models.CustomerAddress, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	name, address = strings.TrimSpace(name), strings.TrimSpace(address)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if address == "" {
		return nil, apperrors.Validation("address is required")
	}

	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	saved := &models.CustomerAddress{CustomerID: p.ID, Name: name, Address: address}
	if err := s.store.Addresses().Create(sctx, saved); err != nil {
		return nil, apperrors.Dependency("add address", err)
	}
	return saved, nil
}

// DeleteAddress soft deletes an address. A second delete of the same id is a
// conflict, an id the customer never owned is not found.
func (s *AddressService) DeleteAddress(ctx context.Context, p Principal, id string) error {
	if err := requireCustomer(p); err != nil {
		return err
	}
	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	existing, err := s.store.Addresses().FindIncludingDeleted(sctx, p.ID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.ErrAddressNotFound
		}
		return apperrors.Dependency("get address", err)
	}
	if existing.DeletedAt.Valid {
		return apperrors.ErrAddressAlreadyDeleted
	}
	if err := s.store.Addresses().Delete(sctx, p.ID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.ErrAddressAlreadyDeleted
		}
		return apperrors.Dependency("delete address", err)
	}
	return nil
}
