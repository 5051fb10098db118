package services

import (
	"context"
	"errors"
	"time"

	"foodorder/internal/apperrors"
	"foodorder/internal/models"
	"foodorder/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartService maintains the per-customer cart. Mutations of one customer are
// serialised in-process and every line write is conditional on the quantity
// that was read.
type CartService struct {
	store   repositories.Store
	locks   *KeyedMutex
	timeout time.Duration
}

// NewCartService creates a new CartService.
func NewCartService(store repositories.Store, locks *KeyedMutex, timeout time.Duration) *CartService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &CartService{store: store, locks: locks, timeout: timeout}
}

func requireCustomer(p Principal) error {
	if p.Role != models.RoleCustomer {
		return apperrors.ErrNotAuthorized
	}
	return nil
}

// Upsert adds delta units of food to the cart. A negative delta removes
// units; the line is deleted once its quantity drops to zero or below. The
// line total moves by unit price times delta at the current price.
func (s *CartService) Upsert(ctx context.Context, p Principal, foodID string, delta int) (*models.CartLine, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	unlock := s.locks.Lock(p.ID)
	defer unlock()

	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	var result *models.CartLine
	err := s.store.Transaction(sctx, func(tx repositories.Store) error {
		food, err := tx.Foods().GetByID(sctx, foodID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrFoodNotFound
			}
			return err
		}
		amount := food.Price.Mul(decimal.NewFromInt(int64(delta)))

		line, err := tx.Carts().Get(sctx, p.ID, foodID)
		if errors.Is(err, repositories.ErrNotFound) {
			if delta < 0 {
				return apperrors.ErrCartLineNotFound
			}
			line = &models.CartLine{
				CustomerID: p.ID,
				FoodID:     foodID,
				Quantity:   delta,
				TotalPrice: amount.Round(2),
			}
			if err := tx.Carts().Create(sctx, line); err != nil {
				if errors.Is(err, repositories.ErrDuplicate) {
					return apperrors.ErrCartChanged
				}
				return err
			}
			result = line
			return nil
		}
		if err != nil {
			return err
		}

		previous := line.Quantity
		line.Quantity += delta
		if line.Quantity <= 0 {
			if err := tx.Carts().Delete(sctx, p.ID, foodID); err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return apperrors.ErrCartChanged
				}
				return err
			}
			return nil
		}

		line.TotalPrice = line.TotalPrice.Add(amount).Round(2)
		if err := tx.Carts().UpdateQuantity(sctx, line, previous); err != nil {
			if errors.Is(err, repositories.ErrStaleWrite) {
				return apperrors.ErrCartChanged
			}
			return err
		}
		result = line
		return nil
	})
	if err != nil {
		return nil, classify("update cart", err)
	}
	return result, nil
}

// Remove deletes the line of food from the cart.
func (s *CartService) Remove(ctx context.Context, p Principal, foodID string) error {
	if err := requireCustomer(p); err != nil {
		return err
	}

	unlock := s.locks.Lock(p.ID)
	defer unlock()

	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if err := s.store.Carts().Delete(sctx, p.ID, foodID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.ErrCartLineNotFound
		}
		return apperrors.Dependency("remove cart line", err)
	}
	return nil
}

// List returns the cart of the caller in insertion order.
func (s *CartService) List(ctx context.Context, p Principal) ([]models.CartLine, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}

	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	lines, err := s.store.Carts().ListByCustomer(sctx, p.ID)
	if err != nil {
		return nil, apperrors.Dependency("list cart", err)
	}
	return lines, nil
}
