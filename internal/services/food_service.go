package services

import (
	"context"
	"errors"
	"time"

	"foodorder/internal/apperrors"
	"foodorder/internal/models"
	"foodorder/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FoodInput is the editable part of a food item.
type FoodInput struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Category    string          `json:"category" validate:"max=50"`
	Price       decimal.Decimal `json:"price"`
}

// FoodService handles business logic related to the food catalog.
type FoodService struct {
	store    repositories.Store
	validate *validator.Validate
	timeout  time.Duration
}

// NewFoodService creates a new FoodService.
func NewFoodService(store repositories.Store, timeout time.Duration) *FoodService {
	return &FoodService{
		store:    store,
		validate: NewValidator(),
		timeout:  timeout,
	}
}

func (s *FoodService) check(input FoodInput) error {
	if err := s.validate.Struct(input); err != nil {
		return ValidationError(err)
	}
	if !input.Price.IsPositive() {
		return apperrors.Validation("price must be greater than 0")
	}
	return nil
}

// GetFood retrieves a single food item by its ID.
func (s *FoodService) GetFood(ctx context.Context, id string) (*models.Food, error) {
	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()
	return s.load(sctx, id)
}

func (s *FoodService) load(ctx context.Context, id string) (*models.Food, error) {
	food, err := s.store.Foods().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrFoodNotFound
		}
		return nil, apperrors.Dependency("get food", err)
	}
	return food, nil
}

func (s *FoodService) loadOwned(ctx context.Context, p Principal, id string) (*models.Food, error) {
	food, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if food.RestaurantID != p.ID {
		return nil, apperrors.ErrNotAuthorized
	}
	return food, nil
}

// CreateFood adds a food item to the menu of the calling restaurant.
func (s *FoodService) CreateFood(ctx context.Context, p Principal, input FoodInput) (*models.Food, error) {
	if p.Role != models.RoleRestaurant {
		return nil, apperrors.ErrNotAuthorized
	}
	if err := s.check(input); err != nil {
		return nil, err
	}

	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	food := &models.Food{
		RestaurantID: p.ID,
		Name:         input.Name,
		Description:  input.Description,
		Category:     input.Category,
		Price:        input.Price.Round(2),
	}
	if err := s.store.Foods().Create(sctx, food); err != nil {
		return nil, apperrors.Dependency("create food", err)
	}
	return food, nil
}

// UpdateFood changes a food item of the calling restaurant. Existing orders
// keep the prices they were placed with.
func (s *FoodService) UpdateFood(ctx context.Context, p Principal, id string, input FoodInput) (*models.Food, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}

	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	food, err := s.loadOwned(sctx, p, id)
	if err != nil {
		return nil, err
	}
	food.Name = input.Name
	food.Description = input.Description
	food.Category = input.Category
	food.Price = input.Price.Round(2)
	food.UpdatedAt = time.Now().UTC()
	if err := s.store.Foods().Update(sctx, food); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrFoodNotFound
		}
		return nil, apperrors.Dependency("update food", err)
	}
	return food, nil
}

// DeleteFood removes a food item of the calling restaurant.
func (s *FoodService) DeleteFood(ctx context.Context, p Principal, id string) error {
	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if _, err := s.loadOwned(sctx, p, id); err != nil {
		return err
	}
	if err := s.store.Foods().Delete(sctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.ErrFoodNotFound
		}
		return apperrors.Dependency("delete food", err)
	}
	return nil
}
