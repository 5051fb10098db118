package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a state of the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusAssigned       OrderStatus = "ASSIGNED"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCanceled       OrderStatus = "CANCELED"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:        "Pending",
	OrderStatusAssigned:       "Assigned to a delivery person",
	OrderStatusOutForDelivery: "Out for delivery",
	OrderStatusDelivered:      "Delivered",
	OrderStatusCanceled:       "Canceled",
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Terminal reports whether no transition may leave s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

// Label is the customer facing wording of s.
func (s OrderStatus) Label() string {
	if l, ok := orderStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Order is the immutable snapshot of a checked out cart. Only Status,
// DeliveryPerson, DeliveryTime and IsReviewed change after creation.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID      string          `json:"customerId" gorm:"index;type:varchar(36);not null"`
	RestaurantID    string          `json:"restaurantId" gorm:"index;type:varchar(36);not null"`
	DeliveryAddress string          `json:"deliveryAddress" gorm:"type:varchar(500);not null"`
	TotalPrice      decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);index;not null"`
	DeliveryPerson  *string         `json:"deliveryPerson,omitempty" gorm:"type:varchar(100)"`
	DeliveryTime    *time.Time      `json:"deliveryTime,omitempty"`
	IsReviewed      bool            `json:"isReviewed" gorm:"not null"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is one frozen line of an order.
type OrderItem struct {
	ID        uint            `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID   string          `json:"orderId" gorm:"index;type:varchar(36);not null"`
	Position  int             `json:"position" gorm:"not null"`
	FoodID    string          `json:"foodId" gorm:"type:varchar(36);not null"`
	Name      string          `json:"name" gorm:"type:varchar(100)"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unitPriceAtOrderTime" gorm:"type:decimal(12,2);not null"`
	LineTotal decimal.Decimal `json:"lineTotal" gorm:"type:decimal(12,2);not null"`
}

// OrderStatusHistory records every status write of an order.
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID    string      `json:"orderId" gorm:"index;type:varchar(36);not null"`
	FromStatus OrderStatus `json:"fromStatus" gorm:"type:varchar(20)"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"type:varchar(20);not null"`
	ChangedBy  string      `json:"changedBy" gorm:"type:varchar(36)"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// TableName keeps the audit table name singular per order.
func (OrderStatusHistory) TableName() string { return "order_status_history" }
