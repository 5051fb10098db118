package repositories

import (
	"context"
	"fmt"
	"time"

	"foodorder/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create saves an order together with its items.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return translate(err, "failed to create order for customer %s", order.CustomerID)
	}
	return nil
}

// GetByID returns an order by its ID with its items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items", preloadItems).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "failed to get order by ID %s", id)
	}
	return &order, nil
}

// List returns the orders matching filter, most recent first.
func (r *GORMOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items", preloadItems).
		Where("customer_id = ? OR restaurant_id = ?", filter.ParticipantID, filter.ParticipantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, translate(err, "failed to list orders of %s", filter.ParticipantID)
	}
	return orders, nil
}

func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, expected models.OrderStatus, update StatusUpdate) error {
	values := map[string]interface{}{
		"status":     update.Status,
		"updated_at": time.Now().UTC(),
	}
	if update.DeliveryTime != nil {
		values["delivery_time"] = *update.DeliveryTime
	} else {
		values["delivery_time"] = nil
	}
	if update.DeliveryPerson != nil {
		values["delivery_person"] = *update.DeliveryPerson
	}

	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(values)
	if res.Error != nil {
		return translate(res.Error, "failed to update status of order %s", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s is no longer %s: %w", id, expected, ErrStaleWrite)
	}
	return nil
}

func (r *GORMOrderRepository) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return translate(err, "failed to record status history of order %s", entry.OrderID)
	}
	return nil
}

func (r *GORMOrderRepository) ListHistory(ctx context.Context, orderID string) ([]models.OrderStatusHistory, error) {
	var entries []models.OrderStatusHistory
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&entries).Error
	if err != nil {
		return nil, translate(err, "failed to list status history of order %s", orderID)
	}
	return entries, nil
}

func (r *GORMOrderRepository) MarkReviewed(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND is_reviewed = ?", id, false).
		Update("is_reviewed", true)
	if res.Error != nil {
		return translate(res.Error, "failed to mark order %s reviewed", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s already reviewed: %w", id, ErrStaleWrite)
	}
	return nil
}
