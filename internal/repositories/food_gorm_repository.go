package repositories

import (
	"context"
	"fmt"

	"foodorder/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMFoodRepository is a GORM implementation of FoodRepository.
type GORMFoodRepository struct {
	db *gorm.DB
}

// NewGORMFoodRepository creates a new instance of GORMFoodRepository.
func NewGORMFoodRepository(db *gorm.DB) *GORMFoodRepository {
	return &GORMFoodRepository{db: db}
}

// GetByID retrieves a single food item by its ID from the database.
func (r *GORMFoodRepository) GetByID(ctx context.Context, id string) (*models.Food, error) {
	var food models.Food
	if err := r.db.WithContext(ctx).First(&food, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to get food by ID %s", id)
	}
	return &food, nil
}

// Create creates a new food item in the database.
func (r *GORMFoodRepository) Create(ctx context.Context, food *models.Food) error {
	if food.ID == "" {
		food.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(food).Error; err != nil {
		return translate(err, "failed to create food")
	}
	return nil
}

// Update writes the catalog fields of an existing food item. Rating and
// order counters are owned by other writers and are left untouched.
func (r *GORMFoodRepository) Update(ctx context.Context, food *models.Food) error {
	res := r.db.WithContext(ctx).Model(&models.Food{}).Where("id = ?", food.ID).
		Select("name", "description", "category", "price", "updated_at").
		Updates(food)
	if res.Error != nil {
		return translate(res.Error, "failed to update food %s", food.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("food with ID %s not found for update: %w", food.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a food item by its ID from the database.
func (r *GORMFoodRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Food{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "failed to delete food %s", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("food with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMFoodRepository) IncrementOrderCount(ctx context.Context, id string, quantity int) error {
	res := r.db.WithContext(ctx).Model(&models.Food{}).Where("id = ?", id).
		UpdateColumn("order_count", gorm.Expr("order_count + ?", quantity))
	if res.Error != nil {
		return translate(res.Error, "failed to increment order count of food %s", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("food with ID %s not found: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMFoodRepository) UpdateRating(ctx context.Context, id string, expectedCount int, average decimal.Decimal, count int) error {
	res := r.db.WithContext(ctx).Model(&models.Food{}).
		Where("id = ? AND total_ratings_count = ?", id, expectedCount).
		UpdateColumns(map[string]interface{}{
			"average_rating":      average,
			"total_ratings_count": count,
		})
	if res.Error != nil {
		return translate(res.Error, "failed to update rating of food %s", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("rating of food %s changed: %w", id, ErrStaleWrite)
	}
	return nil
}
