package repositories

import (
	"context"
	"fmt"

	"foodorder/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// ListByCustomer returns the cart of a customer in insertion order.
func (r *GORMCartRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, translate(err, "failed to list cart of customer %s", customerID)
	}
	return lines, nil
}

func (r *GORMCartRepository) Get(ctx context.Context, customerID, foodID string) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		First(&line, "customer_id = ? AND food_id = ?", customerID, foodID).Error
	if err != nil {
		return nil, translate(err, "failed to get cart line of food %s", foodID)
	}
	return &line, nil
}

func (r *GORMCartRepository) Create(ctx context.Context, line *models.CartLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return translate(err, "failed to create cart line of food %s", line.FoodID)
	}
	return nil
}

func (r *GORMCartRepository) UpdateQuantity(ctx context.Context, line *models.CartLine, expectedQuantity int) error {
	res := r.db.WithContext(ctx).Model(&models.CartLine{}).
		Where("id = ? AND quantity = ?", line.ID, expectedQuantity).
		Updates(map[string]interface{}{
			"quantity":    line.Quantity,
			"total_price": line.TotalPrice,
		})
	if res.Error != nil {
		return translate(res.Error, "failed to update cart line %s", line.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart line %s changed: %w", line.ID, ErrStaleWrite)
	}
	return nil
}

func (r *GORMCartRepository) Delete(ctx context.Context, customerID, foodID string) error {
	res := r.db.WithContext(ctx).
		Where("customer_id = ? AND food_id = ?", customerID, foodID).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return translate(res.Error, "failed to delete cart line of food %s", foodID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart line of food %s not found: %w", foodID, ErrNotFound)
	}
	return nil
}

func (r *GORMCartRepository) DeleteLines(ctx context.Context, customerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("customer_id = ? AND id IN ?", customerID, ids).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return 0, translate(res.Error, "failed to drain cart of customer %s", customerID)
	}
	return res.RowsAffected, nil
}
