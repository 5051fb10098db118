package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodorder/internal/apperrors"
	"foodorder/internal/models"
	"foodorder/internal/notifications"
	"foodorder/internal/repositories"
	"foodorder/internal/statemachine"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// OrderService handles order placement and the order lifecycle.
type OrderService struct {
	store    repositories.Store
	locks    *KeyedMutex
	notifier StatusNotifier
	recorder OrderRecorder
	timeout  time.Duration
	now      func() time.Time
}

// NewOrderService creates a new OrderService. notifier and recorder may be nil.
func NewOrderService(store repositories.Store, locks *KeyedMutex, notifier StatusNotifier, recorder OrderRecorder, timeout time.Duration) *OrderService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &OrderService{
		store:    store,
		locks:    locks,
		notifier: notifier,
		recorder: recorder,
		timeout:  timeout,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for delivery times and events.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

func (s *OrderService) announce(order *models.Order) {
	if s.recorder != nil {
		if order.Status == models.OrderStatusPending {
			s.recorder.OrderPlaced()
		} else {
			s.recorder.OrderTransition(string(order.Status))
		}
	}
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyOrderStatus(notifications.OrderStatusEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Status:     order.Status,
		OccurredAt: s.now().UTC(),
	})
}

// PlaceOrder converts the caller's cart into a PENDING order. Food order
// counts, the order and the cart drain commit together; at most one
// placement per customer runs at a time.
func (s *OrderService) PlaceOrder(ctx context.Context, p Principal, deliveryAddress string) (*models.Order, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	deliveryAddress = strings.TrimSpace(deliveryAddress)
	if deliveryAddress == "" {
		return nil, apperrors.ErrDeliveryAddressRequired
	}

	unlock := s.locks.Lock(p.ID)
	defer unlock()

	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	var order *models.Order
	err := s.store.Transaction(sctx, func(tx repositories.Store) error {
		lines, err := tx.Carts().ListByCustomer(sctx, p.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperrors.ErrCartEmpty
		}

		order = &models.Order{
			CustomerID:      p.ID,
			DeliveryAddress: deliveryAddress,
			TotalPrice:      decimal.Zero,
			Status:          models.OrderStatusPending,
			Items:           make([]models.OrderItem, 0, len(lines)),
		}
		ids := make([]string, 0, len(lines))
		for i, line := range lines {
			food, err := tx.Foods().GetByID(sctx, line.FoodID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return apperrors.ErrFoodNotFound.WithMessage("food item %s in the cart no longer exists", line.FoodID)
				}
				return err
			}
			if i == 0 {
				order.RestaurantID = food.RestaurantID
			} else if food.RestaurantID != order.RestaurantID {
				return apperrors.ErrMixedRestaurantCart
			}

			order.TotalPrice = order.TotalPrice.Add(line.TotalPrice)
			order.Items = append(order.Items, models.OrderItem{
				Position:  i,
				FoodID:    line.FoodID,
				Name:      food.Name,
				Quantity:  line.Quantity,
				UnitPrice: food.Price.Round(2),
				LineTotal: line.TotalPrice,
			})
			ids = append(ids, line.ID)

			if err := tx.Foods().IncrementOrderCount(sctx, line.FoodID, line.Quantity); err != nil {
				return err
			}
		}
		order.TotalPrice = order.TotalPrice.Round(2)

		if err := tx.Orders().Create(sctx, order); err != nil {
			return err
		}
		if err := tx.Orders().AppendHistory(sctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.OrderStatusPending,
			ChangedBy: p.ID,
		}); err != nil {
			return err
		}

		drained, err := tx.Carts().DeleteLines(sctx, p.ID, ids)
		if err != nil {
			return err
		}
		if drained != int64(len(ids)) {
			return apperrors.ErrCartChanged
		}
		return nil
	})
	if err != nil {
		return nil, classify("place order", err)
	}

	log.WithFields(log.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"total":       order.TotalPrice.StringFixed(2),
	}).Info("order placed")
	s.announce(order)
	return order, nil
}

// planFunc checks the loaded order and returns the status write to apply.
type planFunc func(order *models.Order) (repositories.StatusUpdate, error)

// transition loads the order, lets plan decide the write, and applies it
// with a compare-and-set on the loaded status together with a history entry.
func (s *OrderService) transition(ctx context.Context, p Principal, orderID string, plan planFunc) (*models.Order, error) {
	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	var order *models.Order
	err := s.store.Transaction(sctx, func(tx repositories.Store) error {
		var err error
		order, err = tx.Orders().GetByID(sctx, orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrOrderNotFound
			}
			return err
		}

		update, err := plan(order)
		if err != nil {
			return err
		}

		from := order.Status
		if err := tx.Orders().UpdateStatus(sctx, order.ID, from, update); err != nil {
			if errors.Is(err, repositories.ErrStaleWrite) {
				return apperrors.ErrOrderStatusChanged
			}
			return err
		}
		if err := tx.Orders().AppendHistory(sctx, &models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   update.Status,
			ChangedBy:  p.ID,
		}); err != nil {
			return err
		}

		order.Status = update.Status
		order.DeliveryTime = update.DeliveryTime
		if update.DeliveryPerson != nil {
			order.DeliveryPerson = update.DeliveryPerson
		}
		return nil
	})
	if err != nil {
		return nil, classify("update order status", err)
	}

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"status":   order.Status,
		"actor":    p.ID,
	}).Info("order status changed")
	s.announce(order)
	return order, nil
}

// CancelOrder lets the customer withdraw an order that is still PENDING.
func (s *OrderService) CancelOrder(ctx context.Context, p Principal, orderID string) (*models.Order, error) {
	return s.transition(ctx, p, orderID, func(order *models.Order) (repositories.StatusUpdate, error) {
		if order.CustomerID != p.ID {
			return repositories.StatusUpdate{}, apperrors.ErrNotAuthorized
		}
		switch order.Status {
		case models.OrderStatusDelivered:
			return repositories.StatusUpdate{}, apperrors.ErrAlreadyDelivered
		case models.OrderStatusCanceled:
			return repositories.StatusUpdate{}, apperrors.ErrAlreadyCanceled
		case models.OrderStatusPending:
		default:
			return repositories.StatusUpdate{}, apperrors.ErrOrderInProgress
		}
		if err := statemachine.CanTransition(order.Status, models.OrderStatusCanceled, models.RoleCustomer); err != nil {
			return repositories.StatusUpdate{}, err
		}
		return repositories.StatusUpdate{Status: models.OrderStatusCanceled}, nil
	})
}

// AssignDeliveryPerson moves a PENDING order of the calling restaurant to
// ASSIGNED and records who delivers it.
func (s *OrderService) AssignDeliveryPerson(ctx context.Context, p Principal, orderID, deliveryPerson string) (*models.Order, error) {
	deliveryPerson = strings.TrimSpace(deliveryPerson)
	if deliveryPerson == "" {
		return nil, apperrors.Validation("deliveryPerson is required")
	}
	return s.transition(ctx, p, orderID, func(order *models.Order) (repositories.StatusUpdate, error) {
		if p.Role != models.RoleRestaurant || order.RestaurantID != p.ID {
			return repositories.StatusUpdate{}, apperrors.ErrNotAuthorized
		}
		if err := statemachine.CanTransition(order.Status, models.OrderStatusAssigned, models.RoleRestaurant); err != nil {
			return repositories.StatusUpdate{}, err
		}
		return repositories.StatusUpdate{
			Status:         models.OrderStatusAssigned,
			DeliveryPerson: &deliveryPerson,
		}, nil
	})
}

// UpdateDeliveryStatus moves an order of the calling restaurant along the
// delivery path or cancels it. DELIVERED stamps deliveryTime, defaulting to
// now; every other status clears it.
func (s *OrderService) UpdateDeliveryStatus(ctx context.Context, p Principal, orderID string, status models.OrderStatus, deliveryTime *time.Time) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.ErrUnknownStatus.WithMessage("unknown order status %q", status)
	}
	return s.transition(ctx, p, orderID, func(order *models.Order) (repositories.StatusUpdate, error) {
		if p.Role != models.RoleRestaurant || order.RestaurantID != p.ID {
			return repositories.StatusUpdate{}, apperrors.ErrNotAuthorized
		}
		if err := statemachine.CanTransition(order.Status, status, models.RoleRestaurant); err != nil {
			return repositories.StatusUpdate{}, err
		}
		if status == models.OrderStatusAssigned {
			return repositories.StatusUpdate{}, apperrors.ErrInvalidTransition.WithMessage("use delivery assignment to move an order to ASSIGNED")
		}

		update := repositories.StatusUpdate{Status: status}
		if status == models.OrderStatusDelivered {
			at := s.now().UTC()
			if deliveryTime != nil {
				at = deliveryTime.UTC()
			}
			update.DeliveryTime = &at
		}
		return update, nil
	})
}

// FetchOrders lists the orders the caller takes part in, newest first.
// status, when not empty, narrows the result.
func (s *OrderService) FetchOrders(ctx context.Context, p Principal, status string) ([]models.Order, error) {
	filter := repositories.OrderFilter{ParticipantID: p.ID}
	if status != "" {
		st := models.OrderStatus(strings.ToUpper(status))
		if !st.Valid() {
			return nil, apperrors.ErrUnknownStatus.WithMessage("unknown order status %q", status)
		}
		filter.Status = &st
	}

	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	orders, err := s.store.Orders().List(sctx, filter)
	if err != nil {
		return nil, apperrors.Dependency("fetch orders", err)
	}
	return orders, nil
}

// GetOrder returns one order the caller takes part in.
func (s *OrderService) GetOrder(ctx context.Context, p Principal, orderID string) (*models.Order, error) {
	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	order, err := s.store.Orders().GetByID(sctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, apperrors.Dependency("get order", err)
	}
	if order.CustomerID != p.ID && order.RestaurantID != p.ID {
		return nil, apperrors.ErrOrderNotFound
	}
	return order, nil
}

// History returns the status changes of an order, oldest first.
func (s *OrderService) History(ctx context.Context, p Principal, orderID string) ([]models.OrderStatusHistory, error) {
	if _, err := s.GetOrder(ctx, p, orderID); err != nil {
		return nil, err
	}

	sctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	entries, err := s.store.Orders().ListHistory(sctx, orderID)
	if err != nil {
		return nil, apperrors.Dependency("list order history", err)
	}
	return entries, nil
}
