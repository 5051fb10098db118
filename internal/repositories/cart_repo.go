package repositories

import (
	"context"

	"foodorder/internal/models"
)

// CartRepository defines the interface for cart line data access.
type CartRepository interface {
	ListByCustomer(ctx context.Context, customerID string) ([]models.CartLine, error)
	Get(ctx context.Context, customerID, foodID string) (*models.CartLine, error)
	Create(ctx context.Context, line *models.CartLine) error
	// UpdateQuantity writes line.Quantity and line.TotalPrice only while the
	// stored quantity still equals expectedQuantity.
	UpdateQuantity(ctx context.Context, line *models.CartLine, expectedQuantity int) error
	Delete(ctx context.Context, customerID, foodID string) error
	// DeleteLines removes the given lines of a customer and reports how many
	// rows were removed.
	DeleteLines(ctx context.Context, customerID string, ids []string) (int64, error)
}
