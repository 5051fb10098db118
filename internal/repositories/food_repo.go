package repositories

import (
	"context"

	"foodorder/internal/models"

	"github.com/shopspring/decimal"
)

// FoodRepository defines the interface for food data access.
type FoodRepository interface {
	GetByID(ctx context.Context, id string) (*models.Food, error)
	Create(ctx context.Context, food *models.Food) error
	Update(ctx context.Context, food *models.Food) error
	Delete(ctx context.Context, id string) error
	IncrementOrderCount(ctx context.Context, id string, quantity int) error
	// UpdateRating writes a new aggregate only while the stored ratings
	// count still equals expectedCount. Returns ErrStaleWrite otherwise.
	UpdateRating(ctx context.Context, id string, expectedCount int, average decimal.Decimal, count int) error
}
