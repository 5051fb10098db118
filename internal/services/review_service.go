package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodorder/internal/apperrors"
	"foodorder/internal/models"
	"foodorder/internal/repositories"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	minRating = 1
	maxRating = 5
)

// ReviewInput is one rated food item of an order.
type ReviewInput struct {
	FoodID  string  `json:"foodId"`
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

// ReviewService records order reviews and keeps the rating aggregate of each
// food item.
type ReviewService struct {
	store   repositories.Store
	timeout time.Duration
}

// NewReviewService creates a new ReviewService.
func NewReviewService(store repositories.Store, timeout time.Duration) *ReviewService {
	return &ReviewService{store: store, timeout: timeout}
}

func clampRating(r int) int {
	if r < minRating {
		return minRating
	}
	if r > maxRating {
		return maxRating
	}
	return r
}

// nextAverage folds rating into an average over count ratings, rounded to
// one decimal.
func nextAverage(average decimal.Decimal, count, rating int) decimal.Decimal {
	sum := average.Mul(decimal.NewFromInt(int64(count))).Add(decimal.NewFromInt(int64(rating)))
	return sum.Div(decimal.NewFromInt(int64(count + 1))).Round(1)
}

// AddReview stores the reviews of an order and updates the ratings of the
// reviewed food items. An order is reviewed at most once; any failure leaves
// every aggregate unchanged.
func (s *ReviewService) AddReview(ctx context.Context, p Principal, orderID string, entries []ReviewInput) ([]models.Review, error) {
	if len(entries) == 0 {
		return nil, apperrors.Validation("at least one review is required")
	}

	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	var reviews []models.Review
	err := s.store.Transaction(sctx, func(tx repositories.Store) error {
		order, err := tx.Orders().GetByID(sctx, orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrOrderNotFound
			}
			return err
		}
		if order.CustomerID != p.ID {
			return apperrors.ErrOrderNotFound
		}
		if order.IsReviewed {
			return apperrors.ErrAlreadyReviewed
		}

		ordered := make(map[string]bool, len(order.Items))
		for _, item := range order.Items {
			ordered[item.FoodID] = true
		}
		seen := make(map[string]bool, len(entries))

		reviews = make([]models.Review, 0, len(entries))
		for _, entry := range entries {
			foodID := strings.TrimSpace(entry.FoodID)
			if foodID == "" {
				return apperrors.Validation("foodId is required")
			}

			food, err := tx.Foods().GetByID(sctx, foodID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return apperrors.ErrFoodNotFound
				}
				return err
			}
			if !ordered[foodID] {
				return apperrors.Validation("food item %s is not part of order %s", foodID, order.ID)
			}
			if seen[foodID] {
				return apperrors.Validation("food item %s is reviewed more than once", foodID)
			}
			seen[foodID] = true

			rating := clampRating(entry.Rating)
			review := models.Review{
				OrderID:    order.ID,
				FoodID:     foodID,
				CustomerID: p.ID,
				Rating:     rating,
				Comment:    entry.Comment,
			}
			if err := tx.Reviews().Create(sctx, &review); err != nil {
				if errors.Is(err, repositories.ErrDuplicate) {
					return apperrors.ErrAlreadyReviewed
				}
				return err
			}

			average := nextAverage(food.AverageRating, food.TotalRatingsCount, rating)
			if err := tx.Foods().UpdateRating(sctx, food.ID, food.TotalRatingsCount, average, food.TotalRatingsCount+1); err != nil {
				if errors.Is(err, repositories.ErrStaleWrite) {
					return apperrors.ErrRatingChanged
				}
				return err
			}
			reviews = append(reviews, review)
		}

		if err := tx.Orders().MarkReviewed(sctx, order.ID); err != nil {
			if errors.Is(err, repositories.ErrStaleWrite) {
				return apperrors.ErrAlreadyReviewed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, classify("add review", err)
	}

	log.WithFields(log.Fields{"order_id": orderID, "reviews": len(reviews)}).Info("order reviewed")
	return reviews, nil
}

// ListFoodReviews returns the reviews of a food item, newest first.
func (s *ReviewService) ListFoodReviews(ctx context.Context, foodID string) ([]models.Review, error) {
	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if _, err := s.store.Foods().GetByID(sctx, foodID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrFoodNotFound
		}
		return nil, apperrors.Dependency("get food", err)
	}
	reviews, err := s.store.Reviews().ListByFood(sctx, foodID)
	if err != nil {
		return nil, apperrors.Dependency("list reviews", err)
	}
	return reviews, nil
}
