// Package notifications delivers order status changes to customers.
//
// Services hand events to a Dispatcher, which publishes them in the
// background. A consumer reads them back from the queue and forwards them to
// the push provider through PushClient.
package notifications

import (
	"context"
	"time"

	"foodorder/internal/models"
)

// OrderStatusEvent announces that an order reached a new status.
type OrderStatusEvent struct {
	OrderID    string             `json:"orderId"`
	CustomerID string             `json:"customerId"`
	Status     models.OrderStatus `json:"status"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// Message is the text shown to the customer.
func (e OrderStatusEvent) Message() string {
	return "Your order status is now: " + e.Status.Label()
}

// Publisher hands an event over to the transport.
type Publisher interface {
	PublishOrderStatus(ctx context.Context, event OrderStatusEvent) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event OrderStatusEvent) error

func (f PublisherFunc) PublishOrderStatus(ctx context.Context, event OrderStatusEvent) error {
	return f(ctx, event)
}
