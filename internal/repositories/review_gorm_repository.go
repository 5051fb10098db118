package repositories

import (
	"context"

	"foodorder/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{db: db}
}

func (r *GORMReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return translate(err, "failed to create review of food %s", review.FoodID)
	}
	return nil
}

// ListByFood returns the reviews of a food item, newest first.
func (r *GORMReviewRepository) ListByFood(ctx context.Context, foodID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).Where("food_id = ?", foodID).Order("created_at DESC").Find(&reviews).Error
	if err != nil {
		return nil, translate(err, "failed to list reviews of food %s", foodID)
	}
	return reviews, nil
}
