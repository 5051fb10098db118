package repositories

import (
	"context"

	"foodorder/internal/models"
)

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListByFood(ctx context.Context, foodID string) ([]models.Review, error)
}
