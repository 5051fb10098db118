package repositories

import (
	"context"
	"time"

	"foodorder/internal/models"
)

// OrderFilter narrows List. ParticipantID matches either the customer or
// the restaurant of an order.
type OrderFilter struct {
	ParticipantID string
	Status        *models.OrderStatus
}

// StatusUpdate is the mutable part of an order written by a transition.
// DeliveryPerson is left untouched when nil; DeliveryTime is always written.
type StatusUpdate struct {
	Status         models.OrderStatus
	DeliveryPerson *string
	DeliveryTime   *time.Time
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// UpdateStatus applies update only while the stored status equals
	// expected. Returns ErrStaleWrite otherwise.
	UpdateStatus(ctx context.Context, id string, expected models.OrderStatus, update StatusUpdate) error
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	ListHistory(ctx context.Context, orderID string) ([]models.OrderStatusHistory, error)
	// MarkReviewed flips is_reviewed once. Returns ErrStaleWrite when the
	// order was already reviewed.
	MarkReviewed(ctx context.Context, id string) error
}
